// Package generator synthesizes NGSI entities for load and integration testing.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

const (
	// DefaultTypeName is used when Options.TypeName is empty.
	DefaultTypeName = "SimpleTimeSeries"

	// IDPrefix and IDSize describe generated entity ids.
	IDPrefix = "id-"
	IDSize   = 16

	// TimestampLayout is RFC 3339 with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// idAlphabet содержит 22 символа: цифры и hex-буквы в обоих регистрах.
// Существующие идентификаторы построены на этом наборе, не нормализовать.
const idAlphabet = "0123456789abcdefABCDEF"

// ErrInvalidRange is returned when Max is not greater than Min.
var ErrInvalidRange = errors.New("max must be greater than min")

// Rand is the randomness source used by the generator.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Options описывает параметры генерации временного ряда
type Options struct {
	Metadata        map[string]any // ключи верхнего уровня перезаписывают поля сущности
	TypeName        string         // тип сущностей, по умолчанию SimpleTimeSeries
	Min             uint16         // минимальное значение (включительно)
	Max             uint16         // максимальное значение (не включительно)
	Count           uint16         // количество сущностей
	IntervalMinutes uint16         // интервал между измерениями, по умолчанию 1
}

// Generator produces synthetic entities from a clock and a random source.
type Generator struct {
	now func() time.Time
	rng Rand
}

// New returns a generator backed by the system clock and a randomly seeded PCG source.
func New() *Generator {
	return &Generator{
		now: time.Now,
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewWithSource returns a generator with an injected clock and random source.
func NewWithSource(now func() time.Time, rng Rand) *Generator {
	return &Generator{now: now, rng: rng}
}

// SimpleTimeSeries generates opts.Count entities. Entity i is observed at
// now + i*IntervalMinutes and carries a uniform random integer in [Min, Max).
func (g *Generator) SimpleTimeSeries(opts Options) ([]ngsi.Entity, error) {
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrInvalidRange, opts.Min, opts.Max)
	}

	interval := opts.IntervalMinutes
	if interval == 0 {
		interval = 1
	}
	typeName := opts.TypeName
	if typeName == "" {
		typeName = DefaultTypeName
	}

	observed := g.now().UTC()
	step := time.Duration(interval) * time.Minute
	span := int(opts.Max) - int(opts.Min)

	series := make([]ngsi.Entity, 0, opts.Count)
	for i := 0; i < int(opts.Count); i++ {
		if i > 0 {
			// шаг прибавляется к предыдущей отметке: i*interval в наносекундах переполняет int64
			observed = observed.Add(step)
		}
		value := int(opts.Min) + g.rng.IntN(span)

		entity := newEntity(g.RandomID(IDSize), typeName, observed.Format(TimestampLayout), strconv.Itoa(value))
		if opts.Metadata != nil {
			entity.Merge(opts.Metadata)
		}
		series = append(series, entity)
	}

	return series, nil
}

// RandomID returns IDPrefix followed by size characters of the id alphabet.
func (g *Generator) RandomID(size int) string {
	var sb strings.Builder
	sb.Grow(len(IDPrefix) + size)
	sb.WriteString(IDPrefix)
	for range size {
		sb.WriteByte(idAlphabet[g.rng.IntN(len(idAlphabet))])
	}
	return sb.String()
}

func newEntity(id, typeName, observed, value string) ngsi.Entity {
	e := ngsi.Entity{
		ngsi.KeyID:   id,
		ngsi.KeyType: typeName,
	}
	e.SetAttribute("dateObserved", ngsi.Attribute{Type: "DateTime", Value: observed})
	e.SetAttribute("value", ngsi.Attribute{Type: "Number", Value: value})
	return e
}
