package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "DAYPANE_"

type Application struct {
	Listen   string   `koanf:"listen"`
	Cors     Cors     `koanf:"cors"`
	View     View     `koanf:"view"`
	Layout   Layout   `koanf:"layout"`
	Database Database `koanf:"db"`
}

type Cors struct {
	// OriginPattern is a regular expression matched against the request Origin.
	OriginPattern string `koanf:"originpattern"`
}

type View struct {
	// Timezone is the IANA zone used to split events into days. Empty means the server zone.
	Timezone     string `koanf:"timezone"`
	WeekStart    string `koanf:"weekstart"`
	DefaultColor string `koanf:"defaultcolor"`
}

type Layout struct {
	// ColumnCount is "pairwise" or "group".
	ColumnCount    string  `koanf:"columncount"`
	DayHourHeight  float64 `koanf:"dayhourheight"`
	WeekHourHeight float64 `koanf:"weekhourheight"`
	MinHeight      float64 `koanf:"minheight"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Defaults() Application {
	return Application{
		Listen: ":8000",
		Cors: Cors{
			OriginPattern: `^http://(localhost|127\.0\.0\.1|\[::\]):(\d+)$`,
		},
		View: View{
			Timezone:     "",
			WeekStart:    "sunday",
			DefaultColor: "#1a73e8",
		},
		Layout: Layout{
			ColumnCount:    "pairwise",
			DayHourHeight:  64,
			WeekHourHeight: 48,
			MinHeight:      32,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "daypane",
			Pass:   "",
			Name:   "daypane",
			Schema: "daypane",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			// DAYPANE_DB_HOST -> db.host
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
