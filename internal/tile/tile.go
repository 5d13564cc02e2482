package tile

import (
	"encoding/binary"
	"fmt"
)

// RecordSize — размер сериализованной записи тайла в байтах.
// Сырая раскладка записи и есть формат сохранения/передачи карты:
// изменение упаковки полей ломает совместимость сохранений.
const RecordSize = 12

// Tile — запись одного тайла карты. Поля m1..m8 не имеют собственной
// семантики: их смысл определяется дискриминантом kind и, для дорожных
// тайлов, запрашиваемым типом дороги. Наружу поля не экспортируются —
// внешние подсистемы работают только через аксессоры кодека.
type Tile struct {
	kind   uint8  // дискриминант: тип (старший ниббл) и подтип (младший)
	height uint8  // высота тайла; кодеком не интерпретируется
	m1     uint8  // обычно владелец (биты 0..4)
	m2     uint16 // обычно город / идентификатор
	m3     uint8  // снег/пустыня, направление, случайные биты
	m4     uint8  // дорожные биты, рельсовое полотно
	m5     uint8  // владелец трамвая
	m6     uint8  // типы дорог, обочина
	m7     uint8  // дорожные работы, тип моста, кадр анимации
	m8     uint16 // тип рельсов
}

// Encode сериализует запись в dst (ровно RecordSize байт, little-endian).
func (t *Tile) Encode(dst []byte) {
	_ = dst[RecordSize-1]
	dst[0] = t.kind
	dst[1] = t.height
	dst[2] = t.m1
	binary.LittleEndian.PutUint16(dst[3:5], t.m2)
	dst[5] = t.m3
	dst[6] = t.m4
	dst[7] = t.m5
	dst[8] = t.m6
	dst[9] = t.m7
	binary.LittleEndian.PutUint16(dst[10:12], t.m8)
}

// Decode восстанавливает запись из src (ровно RecordSize байт).
func (t *Tile) Decode(src []byte) {
	_ = src[RecordSize-1]
	t.kind = src[0]
	t.height = src[1]
	t.m1 = src[2]
	t.m2 = binary.LittleEndian.Uint16(src[3:5])
	t.m3 = src[5]
	t.m4 = src[6]
	t.m5 = src[7]
	t.m6 = src[8]
	t.m7 = src[9]
	t.m8 = binary.LittleEndian.Uint16(src[10:12])
}

// GetHeight возвращает высоту тайла
func (t *Tile) GetHeight() uint8 { return t.height }

// SetHeight устанавливает высоту тайла
func (t *Tile) SetHeight(h uint8) { t.height = h }

// assert проверяет предусловие аксессора. Нарушение — не восстановимая
// ошибка, а нарушение контракта вызывающей стороной: процесс падает.
// Проверки выключаются тегом сборки tilenochecks.
func assert(cond bool, format string, args ...interface{}) {
	if checksEnabled && !cond {
		panic("tile: нарушение контракта: " + fmt.Sprintf(format, args...))
	}
}

// gb читает n бит начиная с позиции pos.
func gb(x uint8, pos, n uint8) uint8 {
	return (x >> pos) & (1<<n - 1)
}

// sb записывает n бит значения v начиная с позиции pos.
func sb(x *uint8, pos, n, v uint8) {
	*x = *x&^((1<<n-1)<<pos) | (v&(1<<n-1))<<pos
}

func hasBit(x uint8, pos uint8) bool { return x&(1<<pos) != 0 }

func setBit(x *uint8, pos uint8) { *x |= 1 << pos }

func clrBit(x *uint8, pos uint8) { *x &^= 1 << pos }

func toggleBit(x *uint8, pos uint8) { *x ^= 1 << pos }
