package eventbus

import (
	"context"
	"fmt"
)

// Глобальная шина сервиса карты. Устанавливается один раз при старте;
// пока шина не инициализирована, публикация — no-op, чтобы генератор
// мира и тесты могли работать без брокера.
var globalBus EventBus

// Init устанавливает глобальную шину. Init(nil) отключает публикацию.
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет конверт в глобальную шину. Конверты без типа
// отклоняются: подписчики фильтруют по EventType, и бестиповое
// событие не доставится никому. Пустой Source заполняется именем
// сервиса карты.
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	if ev.EventType == "" {
		return fmt.Errorf("событие без типа не публикуется")
	}
	if ev.Source == "" {
		ev.Source = mapServiceSource
	}
	return globalBus.Publish(ctx, ev)
}
