package catalogue

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is a parsed catalogue file.
type Document struct {
	Departments []Department `yaml:"departments"`
	Sections    []Section    `yaml:"sections,omitempty"`
}

type Department struct {
	Name        string       `yaml:"name"`
	Programs    []Program    `yaml:"programs,omitempty"`
	Instructors []Instructor `yaml:"instructors,omitempty"`
}

// UnmarshalYAML accepts both the scalar (name only) and mapping forms.
func (d *Department) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Name = value.Value
		return nil
	}
	type departmentAlias Department
	return decodeStrict(value, (*departmentAlias)(d))
}

// decodeStrict decodes node into out, rejecting unknown keys. Node.Decode
// does not inherit the KnownFields setting of the outer decoder.
func decodeStrict(node *yaml.Node, out interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	dec := yaml.NewDecoder(&buf)
	dec.KnownFields(true)
	return dec.Decode(out)
}

type Program struct {
	Name     string    `yaml:"name"`
	Courses  []Course  `yaml:"courses,omitempty"`
	Students []Student `yaml:"students,omitempty"`

	// Curriculum replaces the program's curriculum when present, even empty.
	Curriculum *[]CurriculumEntry `yaml:"curriculum,omitempty"`
}

type Course struct {
	Code string  `yaml:"code"`
	Name string  `yaml:"name"`
	Ects float64 `yaml:"ects"`
}

// CurriculumEntry names its course by code.
type CurriculumEntry struct {
	Course   string `yaml:"course"`
	Year     int    `yaml:"year"`
	Semester int    `yaml:"semester"`
	Elective string `yaml:"elective,omitempty"`
}

type Person struct {
	Email     string `yaml:"email"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Password  string `yaml:"password"`
}

type Instructor struct {
	Person         `yaml:",inline"`
	EmployeeNumber string `yaml:"employeeNumber"`
}

type Student struct {
	Person        `yaml:",inline"`
	StudentNumber string  `yaml:"studentNumber"`
	Year          int     `yaml:"year"`
	Semester      int     `yaml:"semester"`
	Cgpa          float64 `yaml:"cgpa"`
}

// Section names its course by code and its instructor by email.
type Section struct {
	Course     string `yaml:"course"`
	Number     int    `yaml:"number"`
	Capacity   int    `yaml:"capacity"`
	Instructor string `yaml:"instructor"`
}

// Parse decodes a catalogue document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	return &doc, nil
}
