package domain

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeDark
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite возвращает другую тему (для toggle)
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type ThemeSetting struct {
	ClientID string `json:"client_id"`
	Theme    Theme  `json:"theme"`
}
