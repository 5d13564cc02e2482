package tile

// Общий кодек: сквозные поля, не привязанные к дорожной или рельсовой
// семантике. Диапазоны совпадают у всех типов, на которых поле
// осмысленно; предусловия отсекают типы, хранящие это состояние иначе
// или не хранящие вовсе.

// GetOwner возвращает владельца тайла.
// Предусловие: тайл не Void, не Industry и не House — эти типы хранят
// владельца в другом месте или не имеют его.
func (t *Tile) GetOwner() Owner {
	assert(!t.IsVoid(), "GetOwner на краевом тайле")
	assert(!t.IsIndustry(), "GetOwner на тайле предприятия")
	assert(!t.IsHouse(), "GetOwner на тайле дома")
	return Owner(gb(t.m1, 0, 5))
}

// SetOwner записывает владельца тайла.
// Предусловие: тайл не Void, не Industry и не House.
func (t *Tile) SetOwner(o Owner) {
	assert(!t.IsVoid(), "SetOwner на краевом тайле")
	assert(!t.IsIndustry(), "SetOwner на тайле предприятия")
	assert(!t.IsHouse(), "SetOwner на тайле дома")
	sb(&t.m1, 0, 5, uint8(o))
}

// IsTileOwner проверяет, принадлежит ли тайл владельцу
func (t *Tile) IsTileOwner(o Owner) bool {
	return t.GetOwner() == o
}

// snowCapable перечисляет типы, несущие бит снега/пустыни: нерельсовые
// железнодорожные подтипы (мосты), дорожные тайлы и весь TypeMisc.
func (t *Tile) snowCapable() bool {
	return (t.IsRailwayTile() && t.Subtype() != SubtypeTrack) ||
		t.IsRoadTile() || t.IsType(TypeMisc)
}

// GetSnow сообщает, лежит ли на тайле снег. Тот же бит в тропическом
// климате читается как «пустыня»: интерпретацию выбирает конфигурация
// игры, кодек хранит голый флаг.
func (t *Tile) GetSnow() bool {
	assert(t.snowCapable(), "GetSnow на тайле %s", t.Type())
	return hasBit(t.m3, 4)
}

// SetSnow записывает флаг снега/пустыни
func (t *Tile) SetSnow(set bool) {
	assert(t.snowCapable(), "SetSnow на тайле %s", t.Type())
	if set {
		setBit(&t.m3, 4)
	} else {
		clrBit(&t.m3, 4)
	}
}

// ToggleSnow переключает флаг снега/пустыни
func (t *Tile) ToggleSnow() {
	assert(t.snowCapable(), "ToggleSnow на тайле %s", t.Type())
	toggleBit(&t.m3, 4)
}

// GetDesert — псевдоним GetSnow для тропического климата
func (t *Tile) GetDesert() bool { return t.GetSnow() }

// SetDesert — псевдоним SetSnow для тропического климата
func (t *Tile) SetDesert(set bool) { t.SetSnow(set) }

// ToggleDesert — псевдоним ToggleSnow для тропического климата
func (t *Tile) ToggleDesert() { t.ToggleSnow() }

// GetTunnelBridgeDirection возвращает направление, в которое смотрит
// рампа моста или портал тоннеля.
// Предусловие: IsBridgeTile или IsTunnelTile.
func (t *Tile) GetTunnelBridgeDirection() DiagDirection {
	assert(t.IsBridgeTile() || t.IsTunnelTile(), "GetTunnelBridgeDirection на тайле %s", t.Type())
	return DiagDirection(gb(t.m3, 6, 2))
}

// GetRandomBits возвращает случайные биты тайла — восьмибитное зерно,
// выданное при постройке для детерминированной визуальной вариативности.
// Предусловие: House, Object, Industry или Water.
func (t *Tile) GetRandomBits() uint8 {
	assert(t.IsHouse() || t.IsObject() || t.IsIndustry() || t.IsWater(),
		"GetRandomBits на тайле %s", t.Type())
	return t.m3
}

// SetRandomBits перезаписывает случайные биты тайла. Кроме явной
// перезаписи зерно никогда не меняется.
func (t *Tile) SetRandomBits(random uint8) {
	assert(t.IsHouse() || t.IsObject() || t.IsIndustry() || t.IsWater(),
		"SetRandomBits на тайле %s", t.Type())
	t.m3 = random
}

// GetFrame возвращает текущий кадр анимации тайла.
// Предусловие: House, Object, Industry или Station.
func (t *Tile) GetFrame() uint8 {
	assert(t.IsHouse() || t.IsObject() || t.IsIndustry() || t.IsStation(),
		"GetFrame на тайле %s", t.Type())
	return t.m7
}

// SetFrame записывает кадр анимации; его двигает внешняя подсистема
// тикания анимаций.
func (t *Tile) SetFrame(frame uint8) {
	assert(t.IsHouse() || t.IsObject() || t.IsIndustry() || t.IsStation(),
		"SetFrame на тайле %s", t.Type())
	t.m7 = frame
}
