package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"gopkg.in/yaml.v3"
)

type roomsFile struct {
	Rooms []roomEntry `yaml:"rooms"`
}

type roomEntry struct {
	ID       uint64 `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	Active   *bool  `yaml:"active"`
}

type roomUpserter interface {
	Upsert(ctx context.Context, room *entity.Room) error
}

// LoadRooms reads the rooms catalogue. Environment variables in the file are
// expanded and rooms are active unless stated otherwise.
func LoadRooms(path string) ([]*entity.Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRooms([]byte(os.ExpandEnv(string(data))))
}

func ParseRooms(data []byte) ([]*entity.Room, error) {
	var file roomsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rooms catalogue: %w", err)
	}
	if len(file.Rooms) == 0 {
		return nil, errors.New("rooms catalogue is empty")
	}

	seen := make(map[uint64]bool, len(file.Rooms))
	rooms := make([]*entity.Room, 0, len(file.Rooms))
	for _, entry := range file.Rooms {
		name := strings.TrimSpace(entry.Name)
		if entry.ID == 0 {
			return nil, fmt.Errorf("room %q has invalid id 0", name)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate room id %d", entry.ID)
		}
		if name == "" {
			return nil, fmt.Errorf("room %d has no name", entry.ID)
		}
		if entry.Capacity < 0 {
			return nil, fmt.Errorf("room %d has negative capacity", entry.ID)
		}
		seen[entry.ID] = true

		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		rooms = append(rooms, &entity.Room{ID: entry.ID, Name: name, Capacity: entry.Capacity, Active: active})
	}
	return rooms, nil
}

func SeedRooms(ctx context.Context, repo roomUpserter, rooms []*entity.Room) error {
	for _, room := range rooms {
		if err := repo.Upsert(ctx, room); err != nil {
			return fmt.Errorf("upsert room %d: %w", room.ID, err)
		}
	}
	return nil
}
