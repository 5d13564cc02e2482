package eventbus

import (
	"context"
	"fmt"

	"github.com/annel0/transport-game/internal/logging"
)

// StartLoggingListener подписывается на все события карты и пишет их
// в лог в развёрнутом виде: полезная нагрузка известных типов
// декодируется в человекочитаемую строку. Функция неблокирующая.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logging.Debug("[EventBus] %s: %s", ev.EventType, describeEvent(ev))
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 Журнал событий карты активирован")
	return nil
}

// describeEvent разворачивает полезную нагрузку события карты.
// Незнакомые типы и нечитаемые нагрузки описываются конвертом.
func describeEvent(ev *Envelope) string {
	switch ev.EventType {
	case EventTileChanged:
		var p TileChangedPayload
		if ev.DecodePayload(&p) == nil {
			return fmt.Sprintf("тайл (%d,%d) теперь %s", p.X, p.Y, p.Kind)
		}
	case EventRegionSaved:
		var p RegionSavedPayload
		if ev.DecodePayload(&p) == nil {
			return fmt.Sprintf("регион (%d,%d) сохранён, %dБ", p.RX, p.RY, p.Size)
		}
	case EventCrossing:
		var p CrossingPayload
		if ev.DecodePayload(&p) == nil {
			state := "открыт"
			if p.Barred {
				state = "закрыт"
			}
			return fmt.Sprintf("переезд (%d,%d) %s", p.X, p.Y, state)
		}
	case EventRoadWorks:
		var p RoadWorksPayload
		if ev.DecodePayload(&p) == nil {
			state := "начаты"
			if p.Finished {
				state = "завершены"
			}
			return fmt.Sprintf("дорожные работы (%d,%d) %s", p.X, p.Y, state)
		}
	case EventCacheInvalidate:
		return fmt.Sprintf("инвалидация ключа %s", string(ev.Payload))
	}
	return fmt.Sprintf("src=%s prio=%d size=%dБ", ev.Source, ev.Priority, len(ev.Payload))
}
