package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nutriflow/nutriflow/internal/domain/billing"
	"github.com/nutriflow/nutriflow/internal/domain/client"
	"github.com/nutriflow/nutriflow/internal/domain/lab"
	"github.com/nutriflow/nutriflow/internal/domain/menu"
)

//go:embed seed.yaml
var defaultFile []byte

// File is the seed document.
type File struct {
	Users         []User           `yaml:"users"`
	Markers       []*lab.MarkerRef `yaml:"markers"`
	MenuTemplates []*menu.Template `yaml:"menuTemplates"`
	Norms         Norms            `yaml:"norms"`
	Clients       []Client         `yaml:"clients"`
	Plans         []*billing.Plan  `yaml:"plans"`
}

type User struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	TenantID string `yaml:"tenantId"`
}

// Norms are applied to every seeded client.
type Norms struct {
	KcalMin       *float64 `yaml:"kcalMin"`
	KcalMax       *float64 `yaml:"kcalMax"`
	ProteinGrams  *float64 `yaml:"proteinGrams"`
	FatGramsMin   *float64 `yaml:"fatGramsMin"`
	FatGramsMax   *float64 `yaml:"fatGramsMax"`
	CarbsGramsMin *float64 `yaml:"carbsGramsMin"`
	CarbsGramsMax *float64 `yaml:"carbsGramsMax"`
	FiberGrams    *float64 `yaml:"fiberGrams"`
}

func (n Norms) toClient() client.NutrientNorms {
	return client.NutrientNorms{
		KcalMin:       n.KcalMin,
		KcalMax:       n.KcalMax,
		ProteinGrams:  n.ProteinGrams,
		FatGramsMin:   n.FatGramsMin,
		FatGramsMax:   n.FatGramsMax,
		CarbsGramsMin: n.CarbsGramsMin,
		CarbsGramsMax: n.CarbsGramsMax,
		FiberGrams:    n.FiberGrams,
	}
}

type Client struct {
	Owner    string   `yaml:"owner"`
	FullName string   `yaml:"fullName"`
	Status   string   `yaml:"status"`
	Goal     string   `yaml:"goal"`
	Coverage Coverage `yaml:"coverage"`
	Menu     string   `yaml:"menu"`
	Labs     []Lab    `yaml:"labs"`
	Events   []Event  `yaml:"events"`
}

// Coverage is the share of the daily norms eaten on the seeded day.
type Coverage struct {
	Kcal    float64 `yaml:"kcal"`
	Protein float64 `yaml:"protein"`
	Fiber   float64 `yaml:"fiber"`
}

type Lab struct {
	Marker  string  `yaml:"marker"`
	Value   float64 `yaml:"value"`
	Unit    string  `yaml:"unit"`
	Type    string  `yaml:"type"`
	DaysAgo int     `yaml:"daysAgo"`
}

type Event struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Channel     string `yaml:"channel"`
	InDays      int    `yaml:"inDays"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default returns the embedded demo data.
func Default() (*File, error) {
	return Parse(defaultFile)
}

// Load reads the seed file at path, or the embedded one when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func (f *File) validate() error {
	users := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user needs an email and a password")
		}
		users[u.Email] = true
	}
	templates := make(map[string]bool, len(f.MenuTemplates))
	for _, t := range f.MenuTemplates {
		templates[t.Name] = true
	}
	for _, c := range f.Clients {
		if c.FullName == "" {
			return fmt.Errorf("seed client needs a fullName")
		}
		if !users[c.Owner] {
			return fmt.Errorf("client %s: unknown owner %q", c.FullName, c.Owner)
		}
		if c.Menu != "" && !templates[c.Menu] {
			return fmt.Errorf("client %s: unknown menu template %q", c.FullName, c.Menu)
		}
	}
	return nil
}
