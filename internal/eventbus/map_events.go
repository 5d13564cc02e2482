package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// mapServiceSource — имя сервиса-источника в конвертах событий карты.
const mapServiceSource = "map-service"

// Типы событий карты. Имя типа — хвост NATS-subject'а: map.tile_changed
// публикуется в "map.tile_changed" и т.д.
const (
	EventTileChanged     = "tile_changed"     // изменилась запись тайла
	EventRegionSaved     = "region_saved"     // регион ушёл в хранилище
	EventCrossing        = "crossing"         // шлагбаум переезда открыт/закрыт
	EventRoadWorks       = "roadworks"        // дорожные работы начаты/завершены
	EventCacheInvalidate = "cache_invalidate" // инвалидация кеша регионов
)

// TileChangedPayload — полезная нагрузка события изменения тайла
type TileChangedPayload struct {
	X    uint32 `json:"x"`
	Y    uint32 `json:"y"`
	Kind string `json:"kind"` // тип тайла после изменения
}

// RegionSavedPayload — полезная нагрузка события сохранения региона
type RegionSavedPayload struct {
	RX   int `json:"rx"`
	RY   int `json:"ry"`
	Size int `json:"size_bytes"` // размер сжатого блока
}

// CrossingPayload — полезная нагрузка события переезда
type CrossingPayload struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Barred bool   `json:"barred"`
}

// RoadWorksPayload — полезная нагрузка события дорожных работ
type RoadWorksPayload struct {
	X        uint32 `json:"x"`
	Y        uint32 `json:"y"`
	Finished bool   `json:"finished"`
}

// NewEnvelope собирает конверт события карты с заполненными
// служебными полями.
func NewEnvelope(eventType string, priority int, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    mapServiceSource,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// PublishMapEvent собирает конверт и отправляет его в глобальную шину.
// Ошибки сериализации и публикации возвращаются вызывающему: терять
// события молча нельзя, но и ронять тик из-за шины — тоже.
func PublishMapEvent(ctx context.Context, eventType string, priority int, payload interface{}) error {
	ev, err := NewEnvelope(eventType, priority, payload)
	if err != nil {
		return err
	}
	return Publish(ctx, ev)
}
