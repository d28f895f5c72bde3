package entity

type Room struct {
	ID       uint64 `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	Active   bool   `yaml:"active"`
}
