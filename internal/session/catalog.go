package session

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog holds the immutable set of exercise definitions available to the
// app: a built-in library plus whatever a user catalog file contributes.
// Definitions that fail validation are excluded and logged, never fatal.
type Catalog struct {
	defs   []*ExerciseDefinition
	byID   map[string]*ExerciseDefinition
	logger *log.Logger
}

// NewCatalog creates a catalog seeded with the built-in exercises.
func NewCatalog(logger *log.Logger) *Catalog {
	if logger == nil {
		panic("Catalog: logger cannot be nil")
	}
	c := &Catalog{
		byID:   make(map[string]*ExerciseDefinition),
		logger: logger,
	}
	for _, b := range builtinExercises() {
		c.add(b)
	}
	return c
}

// Definitions returns the definitions in catalog order.
func (c *Catalog) Definitions() []*ExerciseDefinition {
	result := make([]*ExerciseDefinition, len(c.defs))
	copy(result, c.defs)
	return result
}

// Lookup returns the definition with the given id, or ErrDefinitionNotFound.
func (c *Catalog) Lookup(id string) (*ExerciseDefinition, error) {
	def, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefinitionNotFound, id)
	}
	return def, nil
}

func (c *Catalog) add(def *ExerciseDefinition) {
	if _, exists := c.byID[def.ID]; exists {
		c.logger.Printf("Catalog: duplicate exercise id %q skipped", def.ID)
		return
	}
	c.defs = append(c.defs, def)
	c.byID[def.ID] = def
}

// catalogFile is the on-disk shape of a user exercise catalog.
type catalogFile struct {
	Exercises []exerciseEntry `yaml:"exercises"`
}

type exerciseEntry struct {
	ID     string       `yaml:"id"`
	Name   string       `yaml:"name"`
	Phases []phaseEntry `yaml:"phases"`
}

type phaseEntry struct {
	Kind        string  `yaml:"kind"`
	Seconds     float64 `yaml:"seconds"`
	Instruction string  `yaml:"instruction"`
}

// LoadFile merges exercises from a YAML catalog file. Entries that fail
// validation (unknown phase kind, empty phase list, non-positive duration)
// are excluded individually; the error return covers only unreadable or
// unparseable files.
func (c *Catalog) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	loaded := 0
	for _, entry := range file.Exercises {
		def, err := entry.toDefinition()
		if err != nil {
			c.logger.Printf("Catalog: excluding exercise %q from %s: %v", entry.ID, path, err)
			continue
		}
		c.add(def)
		loaded++
	}
	c.logger.Printf("Catalog: loaded %d of %d exercises from %s", loaded, len(file.Exercises), path)
	return nil
}

func (e exerciseEntry) toDefinition() (*ExerciseDefinition, error) {
	phases := make([]PhaseSpec, 0, len(e.Phases))
	for _, p := range e.Phases {
		kind, err := parsePhaseKind(p.Kind)
		if err != nil {
			return nil, err
		}
		key := p.Instruction
		if key == "" {
			key = "instruction." + kind.String()
		}
		phases = append(phases, PhaseSpec{
			Kind:           kind,
			Duration:       time.Duration(p.Seconds * float64(time.Second)),
			InstructionKey: key,
		})
	}
	name := e.Name
	if name == "" {
		name = e.ID
	}
	return NewExerciseDefinition(e.ID, name, phases)
}

func parsePhaseKind(s string) (PhaseKind, error) {
	switch s {
	case "inhale":
		return PhaseInhale, nil
	case "hold":
		return PhaseHold, nil
	case "exhale":
		return PhaseExhale, nil
	case "hold_after_exhale":
		return PhaseHoldAfterExhale, nil
	default:
		return 0, fmt.Errorf("%w: unknown phase kind %q", ErrInvalidDefinition, s)
	}
}

// mustDefinition is for the built-in table, which is known valid.
func mustDefinition(id, name string, phases []PhaseSpec) *ExerciseDefinition {
	def, err := NewExerciseDefinition(id, name, phases)
	if err != nil {
		panic(fmt.Sprintf("builtin exercise %q: %v", id, err))
	}
	return def
}

func builtinExercises() []*ExerciseDefinition {
	return []*ExerciseDefinition{
		mustDefinition("box-breathing", "Box Breathing", []PhaseSpec{
			{Kind: PhaseInhale, Duration: 4 * time.Second, InstructionKey: "instruction.inhale"},
			{Kind: PhaseHold, Duration: 4 * time.Second, InstructionKey: "instruction.hold"},
			{Kind: PhaseExhale, Duration: 4 * time.Second, InstructionKey: "instruction.exhale"},
			{Kind: PhaseHoldAfterExhale, Duration: 4 * time.Second, InstructionKey: "instruction.hold_after_exhale"},
		}),
		mustDefinition("relaxing-478", "4-7-8 Relaxing Breath", []PhaseSpec{
			{Kind: PhaseInhale, Duration: 4 * time.Second, InstructionKey: "instruction.inhale"},
			{Kind: PhaseHold, Duration: 7 * time.Second, InstructionKey: "instruction.hold"},
			{Kind: PhaseExhale, Duration: 8 * time.Second, InstructionKey: "instruction.exhale"},
		}),
		mustDefinition("coherent", "Coherent Breathing", []PhaseSpec{
			{Kind: PhaseInhale, Duration: 5 * time.Second, InstructionKey: "instruction.inhale"},
			{Kind: PhaseExhale, Duration: 5 * time.Second, InstructionKey: "instruction.exhale"},
		}),
		mustDefinition("deep-calm", "Deep Calm", []PhaseSpec{
			{Kind: PhaseInhale, Duration: 4 * time.Second, InstructionKey: "instruction.inhale"},
			{Kind: PhaseHold, Duration: 2 * time.Second, InstructionKey: "instruction.hold"},
			{Kind: PhaseExhale, Duration: 6 * time.Second, InstructionKey: "instruction.exhale"},
		}),
	}
}
