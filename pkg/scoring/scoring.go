package scoring

import (
	"os"
	"strings"

	"github.com/Gobusters/ectolinq"
	"gopkg.in/yaml.v3"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

// Weights add up to MaxScore, so a score never needs clamping.
const (
	MobileWeight           = 40
	EmailWeight            = 20
	CompanyWeight          = 15
	RelationshipTypeWeight = 15
	TrustedSourceWeight    = 10

	MaxScore = MobileWeight + EmailWeight + CompanyWeight + RelationshipTypeWeight + TrustedSourceWeight
)

const DefaultUnknownCompany = "Unknown"

var DefaultTrustedSources = []models.SourceSystem{models.SourceSystemInvoice, models.SourceSystemZoho}

// Attributes are the only inputs to a score.
type Attributes struct {
	Mobile           *string
	Email            *string
	CompanyName      string
	RelationshipType *models.RelationshipType
	SourceSystem     models.SourceSystem
}

func AttributesOf(c *models.Contact) Attributes {
	return Attributes{
		Mobile:           c.Mobile,
		Email:            c.Email,
		CompanyName:      c.CompanyName,
		RelationshipType: c.RelationshipType,
		SourceSystem:     c.SourceSystem,
	}
}

// Policy computes the 0-100 data quality score of a contact.
type Policy struct {
	trusted        map[models.SourceSystem]bool
	unknownCompany string
}

func NewPolicy(trusted []models.SourceSystem, unknownCompany string) *Policy {
	if unknownCompany == "" {
		unknownCompany = DefaultUnknownCompany
	}
	set := make(map[models.SourceSystem]bool, len(trusted))
	for _, s := range trusted {
		set[s] = true
	}
	return &Policy{trusted: set, unknownCompany: unknownCompany}
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultTrustedSources, DefaultUnknownCompany)
}

func (p *Policy) Score(a Attributes) int {
	score := 0
	if present(a.Mobile) {
		score += MobileWeight
	}
	if present(a.Email) {
		score += EmailWeight
	}
	if a.CompanyName != "" && a.CompanyName != p.unknownCompany {
		score += CompanyWeight
	}
	if a.RelationshipType != nil && *a.RelationshipType != "" {
		score += RelationshipTypeWeight
	}
	if p.trusted[a.SourceSystem] {
		score += TrustedSourceWeight
	}
	return score
}

func (p *Policy) ScoreContact(c *models.Contact) int {
	return p.Score(AttributesOf(c))
}

func (p *Policy) IsTrusted(source models.SourceSystem) bool {
	return p.trusted[source]
}

func (p *Policy) UnknownCompany() string {
	return p.unknownCompany
}

func present(s *string) bool {
	return s != nil && *s != ""
}

type policyFile struct {
	TrustedSources []string `yaml:"trusted_sources"`
	UnknownCompany string   `yaml:"unknown_company"`
}

// LoadPolicy reads a YAML policy file. Keys missing from the file keep the
// values of base.
func LoadPolicy(path string, base *Policy) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errs.InvalidInput("invalid scoring policy %s: %s", path, err.Error())
	}

	unknown := base.unknownCompany
	if file.UnknownCompany != "" {
		unknown = file.UnknownCompany
	}

	trusted := make([]models.SourceSystem, 0, len(base.trusted))
	for s := range base.trusted {
		trusted = append(trusted, s)
	}
	if file.TrustedSources != nil {
		trusted, err = models.ParseSourceSystems(ectolinq.Map(file.TrustedSources, strings.TrimSpace))
		if err != nil {
			return nil, err
		}
	}

	return NewPolicy(trusted, unknown), nil
}
