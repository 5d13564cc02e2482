//go:build tilenochecks

package tile

const checksEnabled = false
