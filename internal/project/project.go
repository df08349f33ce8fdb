// Package project reads the project document that defines teams and
// sprint windows.
//
// The document is JSON with comments and trailing commas tolerated. Keys
// may be English (projects, members, sprints, start, end) or the German
// names written by earlier versions (projekte, teilnehmer, ende). Dates use
// DD.MM.YYYY; ISO dates are accepted too.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tailscale/hujson"

	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSprintNotFound  = errors.New("sprint not found")
)

// Document is the parsed project file
type Document struct {
	Projects []Project `json:"projects" validate:"dive"`
}

// Project is one team with its sprints
type Project struct {
	Name    string   `json:"name" validate:"required"`
	Members []Member `json:"members" validate:"dive"`
	Sprints []Sprint `json:"sprints" validate:"dive"`
}

// Member is one roster entry. ID is the employee id used in the store.
type Member struct {
	ID   string  `json:"id" validate:"required"`
	Name string  `json:"name,omitempty"`
	Role string  `json:"role,omitempty"`
	FTE  float64 `json:"fte,omitempty" validate:"gte=0,lte=1"`
}

// Sprint is a named date window of a project
type Sprint struct {
	Name                 string    `json:"name" validate:"required"`
	Start                time.Time `json:"start" validate:"required"`
	End                  time.Time `json:"end" validate:"required,gtefield=Start"`
	ConfirmedStoryPoints *float64  `json:"confirmed_story_points,omitempty"`
	DeliveredStoryPoints *float64  `json:"delivered_story_points,omitempty"`
}

var validate = validator.New()

// Load reads and parses the project document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a project document.
func Parse(data []byte) (*Document, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid project document: %w", err)
	}

	var raw rawDocument
	if err := json.Unmarshal(standard, &raw); err != nil {
		return nil, fmt.Errorf("invalid project document: %w", err)
	}

	doc := &Document{}
	for _, rp := range append(raw.Projects, raw.Projekte...) {
		p, err := rp.project()
		if err != nil {
			return nil, err
		}
		doc.Projects = append(doc.Projects, p)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid project document: %w", err)
	}
	return doc, nil
}

// Project looks up a project by name, ignoring case.
func (d *Document) Project(name string) (*Project, error) {
	for i := range d.Projects {
		if strings.EqualFold(d.Projects[i].Name, name) {
			return &d.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

// Window resolves a project and sprint into the aggregation window.
func (d *Document) Window(projectName, sprintName string) (domain.SprintWindow, *Sprint, error) {
	p, err := d.Project(projectName)
	if err != nil {
		return domain.SprintWindow{}, nil, err
	}
	s, err := p.Sprint(sprintName)
	if err != nil {
		return domain.SprintWindow{}, nil, err
	}
	return p.Window(s), s, nil
}

// Sprint looks up a sprint by name, ignoring case.
func (p *Project) Sprint(name string) (*Sprint, error) {
	for i := range p.Sprints {
		if strings.EqualFold(p.Sprints[i].Name, name) {
			return &p.Sprints[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrSprintNotFound, p.Name, name)
}

// Roster returns the member ids in document order.
func (p *Project) Roster() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Window builds the aggregation window of sprint s for this project's roster.
func (p *Project) Window(s *Sprint) domain.SprintWindow {
	return domain.SprintWindow{
		Name:   s.Name,
		Start:  s.Start,
		End:    s.End,
		Roster: p.Roster(),
	}
}

type rawDocument struct {
	Projects []rawProject `json:"projects"`
	Projekte []rawProject `json:"projekte"`
}

type rawProject struct {
	Name       string      `json:"name"`
	Members    []rawMember `json:"members"`
	Teilnehmer []rawMember `json:"teilnehmer"`
	Sprints    []rawSprint `json:"sprints"`
}

func (rp rawProject) project() (Project, error) {
	p := Project{Name: strings.TrimSpace(rp.Name)}
	for _, m := range append(rp.Members, rp.Teilnehmer...) {
		p.Members = append(p.Members, m.member())
	}
	for _, rs := range rp.Sprints {
		s, err := rs.sprint()
		if err != nil {
			return Project{}, fmt.Errorf("project %q: %w", p.Name, err)
		}
		p.Sprints = append(p.Sprints, s)
	}
	return p, nil
}

// rawMember accepts either a bare id string or an object.
type rawMember struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Role  string   `json:"role"`
	Rolle string   `json:"rolle"`
	FTE   *float64 `json:"fte"`
}

func (m *rawMember) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*m = rawMember{ID: id}
		return nil
	}
	type plain rawMember
	return json.Unmarshal(data, (*plain)(m))
}

func (m rawMember) member() Member {
	out := Member{
		ID:   strings.TrimSpace(m.ID),
		Name: strings.TrimSpace(m.Name),
		Role: m.Role,
		FTE:  1,
	}
	if out.ID == "" {
		out.ID = out.Name
	}
	if out.Role == "" {
		out.Role = m.Rolle
	}
	if m.FTE != nil {
		out.FTE = *m.FTE
	}
	return out
}

type rawSprint struct {
	Name       string   `json:"name"`
	SprintName string   `json:"sprint_name"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Ende       string   `json:"ende"`
	Confirmed  *float64 `json:"confirmed_story_points"`
	Confimed   *float64 `json:"confimed_story_points"`
	Delivered  *float64 `json:"delivered_story_points"`
}

func (rs rawSprint) sprint() (Sprint, error) {
	s := Sprint{
		Name:                 strings.TrimSpace(firstNonEmpty(rs.Name, rs.SprintName)),
		ConfirmedStoryPoints: rs.Confirmed,
		DeliveredStoryPoints: rs.Delivered,
	}
	if s.ConfirmedStoryPoints == nil {
		s.ConfirmedStoryPoints = rs.Confimed
	}

	var err error
	if s.Start, err = normalize.ParseDate(rs.Start); err != nil {
		return Sprint{}, fmt.Errorf("sprint %q start: %w", s.Name, err)
	}
	if s.End, err = normalize.ParseDate(firstNonEmpty(rs.End, rs.Ende)); err != nil {
		return Sprint{}, fmt.Errorf("sprint %q end: %w", s.Name, err)
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
