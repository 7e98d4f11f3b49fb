// Package seed loads a tenant's starter data from YAML and upserts it.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/loyalty"
)

// Tenant is the tenants row a bundle creates or refreshes.
type Tenant struct {
	Slug             string `yaml:"slug" validate:"required,max=63"`
	Name             string `yaml:"name" validate:"required,max=120"`
	Currency         string `yaml:"currency" validate:"omitempty,len=3"`
	CurrencyExponent int    `yaml:"currency_exponent" validate:"gte=0,lte=4"`
	TaxRateBps       *int   `yaml:"tax_rate_bps" validate:"omitempty,gte=0,lte=10000"`
	TimeZone         string `yaml:"time_zone" validate:"omitempty,timezone"`
	PointsTTLDays    int    `yaml:"points_ttl_days" validate:"gte=0"`
}

type User struct {
	Name     string   `yaml:"name" validate:"required,max=120"`
	Email    string   `yaml:"email" validate:"required,email"`
	Password string   `yaml:"password" validate:"required,min=8"`
	Roles    []string `yaml:"roles" validate:"omitempty,dive,oneof=customer staff admin"`
}

// Hours is one weekday of a branch. Opens and Closes are "HH:MM"; "24:00"
// closes at midnight.
type Hours struct {
	Weekday int    `yaml:"weekday" validate:"gte=0,lte=6"`
	Opens   string `yaml:"opens"`
	Closes  string `yaml:"closes"`
	Closed  bool   `yaml:"closed"`
}

type Branch struct {
	Slug            string  `yaml:"slug" validate:"required,max=63"`
	Name            string  `yaml:"name" validate:"required,max=120"`
	Address         string  `yaml:"address"`
	City            string  `yaml:"city"`
	TimeZone        string  `yaml:"time_zone" validate:"omitempty,timezone"`
	SeatingCapacity int     `yaml:"seating_capacity" validate:"gte=0"`
	MaxPartySize    int     `yaml:"max_party_size" validate:"gte=0"`
	Hours           []Hours `yaml:"hours" validate:"dive"`
}

type Item struct {
	Slug        string   `yaml:"slug" validate:"required,max=80"`
	Name        string   `yaml:"name" validate:"required,max=120"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price" validate:"gte=0"`
	Dietary     []string `yaml:"dietary"`
	Featured    bool     `yaml:"featured"`
}

type Category struct {
	Slug     string `yaml:"slug" validate:"required,max=80"`
	Name     string `yaml:"name" validate:"required,max=120"`
	Position int    `yaml:"position"`
	Items    []Item `yaml:"items" validate:"dive"`
}

type Ingredient struct {
	Name         string `yaml:"name" validate:"required,max=120"`
	Unit         string `yaml:"unit" validate:"required,max=16"`
	OnHand       int64  `yaml:"on_hand" validate:"gte=0"`
	LowThreshold int64  `yaml:"low_threshold" validate:"gte=0"`
}

type Page struct {
	Slug      string `yaml:"slug" validate:"required,max=80"`
	Title     string `yaml:"title" validate:"required,max=200"`
	Body      string `yaml:"body"`
	Kind      string `yaml:"kind" validate:"omitempty,oneof=page banner announcement"`
	Published bool   `yaml:"published"`
}

// File mirrors tenant.yaml.
type File struct {
	Tenant      Tenant       `yaml:"tenant"`
	Users       []User       `yaml:"users" validate:"dive"`
	Branches    []Branch     `yaml:"branches" validate:"dive"`
	Menu        []Category   `yaml:"menu" validate:"dive"`
	Ingredients []Ingredient `yaml:"ingredients" validate:"dive"`
	Pages       []Page       `yaml:"pages" validate:"dive"`
}

// Bundle is everything one seed directory describes.
type Bundle struct {
	File    File
	Program *loyalty.Program
}

// ParseFile decodes tenant.yaml, fills defaults and validates it.
func ParseFile(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	f.applyDefaults()
	if err := common.ValidateStruct(f); err != nil {
		return File{}, fmt.Errorf("seed file: %w", err)
	}
	for _, b := range f.Branches {
		for _, h := range b.Hours {
			if h.Closed {
				continue
			}
			opens, err := clockMinutes(h.Opens)
			if err != nil {
				return File{}, fmt.Errorf("branch %s weekday %d opens: %w", b.Slug, h.Weekday, err)
			}
			closes, err := clockMinutes(h.Closes)
			if err != nil {
				return File{}, fmt.Errorf("branch %s weekday %d closes: %w", b.Slug, h.Weekday, err)
			}
			if closes <= opens {
				return File{}, fmt.Errorf("branch %s weekday %d closes before it opens: %w", b.Slug, h.Weekday, common.ErrInvalidInput)
			}
		}
	}
	return f, nil
}

func (f *File) applyDefaults() {
	if f.Tenant.Currency == "" {
		f.Tenant.Currency = "IDR"
	}
	f.Tenant.Currency = strings.ToUpper(f.Tenant.Currency)
	if f.Tenant.TimeZone == "" {
		f.Tenant.TimeZone = "UTC"
	}
	if f.Tenant.TaxRateBps == nil {
		def := 1000
		f.Tenant.TaxRateBps = &def
	}
	for i := range f.Users {
		f.Users[i].Email = strings.ToLower(strings.TrimSpace(f.Users[i].Email))
		if len(f.Users[i].Roles) == 0 {
			f.Users[i].Roles = []string{common.RoleCustomer}
		}
	}
	for i := range f.Branches {
		b := &f.Branches[i]
		if b.TimeZone == "" {
			b.TimeZone = f.Tenant.TimeZone
		}
		if b.SeatingCapacity == 0 {
			b.SeatingCapacity = 40
		}
		if b.MaxPartySize == 0 {
			b.MaxPartySize = 12
		}
	}
	for i := range f.Pages {
		if f.Pages[i].Kind == "" {
			f.Pages[i].Kind = "page"
		}
	}
}

// LoadDir reads tenant.yaml and the optional loyalty.yaml from dir.
func LoadDir(dir string) (Bundle, error) {
	tf, err := os.Open(filepath.Join(dir, "tenant.yaml"))
	if err != nil {
		return Bundle{}, fmt.Errorf("open tenant.yaml: %w", err)
	}
	defer tf.Close()
	file, err := ParseFile(tf)
	if err != nil {
		return Bundle{}, err
	}
	b := Bundle{File: file}

	lf, err := os.Open(filepath.Join(dir, "loyalty.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("open loyalty.yaml: %w", err)
	}
	defer lf.Close()
	program, err := loyalty.LoadProgram(lf)
	if err != nil {
		return Bundle{}, err
	}
	if program.Tenant != file.Tenant.Slug {
		return Bundle{}, fmt.Errorf("loyalty.yaml is for tenant %q, tenant.yaml for %q: %w", program.Tenant, file.Tenant.Slug, common.ErrInvalidInput)
	}
	b.Program = &program
	return b, nil
}

// clockMinutes turns "HH:MM" into minutes after midnight, allowing "24:00".
func clockMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM: %w", s, common.ErrInvalidInput)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%q is not HH:MM: %w", s, common.ErrInvalidInput)
	}
	return h*60 + m, nil
}
