package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"
)

// Однофайловый формат сохранения. Раскладка файла:
//
//	0..3   магическая сигнатура "TGSV"
//	4..7   длина JSON-заголовка (uint32 LE)
//	...    JSON-заголовок (WorldMeta)
//	...    zstd-сжатый снимок всей карты (Map.Snapshot)
//	конец  CRC32 (IEEE) сжатого снимка (uint32 LE)
//
// Снимок — те же сырые записи тайлов, что живут в памяти: отдельного
// формата сериализации у карты нет.

var savegameMagic = [4]byte{'T', 'G', 'S', 'V'}

// ExportSavegame записывает мир в один файл сохранения
func ExportSavegame(ctx context.Context, path string, m *gamemap.Map, meta *WorldMeta) error {
	ctx, span := otel.Tracer("storage").Start(ctx, "ExportSavegame")
	defer span.End()
	_ = ctx

	header, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации заголовка сохранения: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(m.Snapshot(), nil)

	buf := make([]byte, 0, 8+len(header)+len(compressed)+4)
	buf = append(buf, savegameMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(header)))
	buf = append(buf, header...)
	buf = append(buf, compressed...)
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(compressed))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("ошибка создания директории сохранений %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла сохранения %s: %w", path, err)
	}

	logging.Info("💾 Сохранение экспортировано: %s (%d байт)", path, len(buf))
	return nil
}

// ImportSavegame читает мир из файла сохранения
func ImportSavegame(ctx context.Context, path string) (*gamemap.Map, *WorldMeta, error) {
	ctx, span := otel.Tracer("storage").Start(ctx, "ImportSavegame")
	defer span.End()
	_ = ctx

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения файла сохранения %s: %w", path, err)
	}
	if len(buf) < 12 || [4]byte(buf[0:4]) != savegameMagic {
		return nil, nil, fmt.Errorf("файл %s не является сохранением", path)
	}

	// Длина заголовка приходит из файла: сравнение в uint32 может
	// переполниться на подделанном значении, считаем в int64.
	headerLen := binary.LittleEndian.Uint32(buf[4:8])
	if int64(len(buf)) < 12+int64(headerLen) {
		return nil, nil, fmt.Errorf("файл сохранения %s обрезан", path)
	}

	var meta WorldMeta
	if err := json.Unmarshal(buf[8:8+int(headerLen)], &meta); err != nil {
		return nil, nil, fmt.Errorf("ошибка разбора заголовка сохранения: %w", err)
	}

	compressed := buf[8+int(headerLen) : len(buf)-4]
	wantCRC := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	if crc32.ChecksumIEEE(compressed) != wantCRC {
		return nil, nil, fmt.Errorf("контрольная сумма сохранения %s не сходится", path)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	m, err := gamemap.New(meta.SizeX, meta.SizeY)
	if err != nil {
		return nil, nil, fmt.Errorf("заголовок сохранения повреждён: %w", err)
	}
	if err := m.Restore(raw); err != nil {
		return nil, nil, fmt.Errorf("снимок не соответствует заголовку: %w", err)
	}

	logging.Info("🌍 Сохранение импортировано: %s (%dx%d, тик %d)", path, meta.SizeX, meta.SizeY, meta.Tick)
	return m, &meta, nil
}
