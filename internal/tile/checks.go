//go:build !tilenochecks

package tile

// checksEnabled включает проверки предусловий в аксессорах кодека.
// Сборка с тегом tilenochecks убирает проверки целиком: документированное
// предусловие остаётся обязанностью вызывающей стороны.
const checksEnabled = true
