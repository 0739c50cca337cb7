package config

// Settings is the validated runtime configuration.
type Settings struct {
	PagesPerBuffer int // staging-buffer capacity in pages
	Debug          bool
}

// Config mirrors the ini file layout.
type Config struct {
	Collector struct {
		PagesPerBuffer int `ini:"pages_per_buffer"`
	} `ini:"collector"`
	Logging struct {
		Debug bool `ini:"debug"`
	} `ini:"logging"`
}
