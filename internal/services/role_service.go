package services

import (
	"strings"

	"github.com/ezparkk/site-api/internal/models"
)

// RoleService serves the open roles listed on the careers page.
type RoleService struct {
	roles []models.Role
	byID  map[string]int
}

func NewRoleService(roles []models.Role) *RoleService {
	s := &RoleService{
		roles: roles,
		byID:  make(map[string]int, len(roles)),
	}
	for i, r := range roles {
		s.byID[r.ID] = i
	}
	return s
}

// Roles returns the catalog in display order.
func (s *RoleService) Roles() []models.Role {
	out := make([]models.Role, len(s.roles))
	copy(out, s.roles)
	return out
}

// RoleByID looks a role up by its URL slug. Lookup ignores case and
// surrounding whitespace so "/careers/Marketing-Intern" still resolves.
func (s *RoleService) RoleByID(id string) (models.Role, bool) {
	i, ok := s.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return models.Role{}, false
	}
	return s.roles[i], true
}

// OpenRoles is the current careers catalog.
var OpenRoles = []models.Role{
	{
		ID:         "software-engineering-intern",
		Title:      "Software Engineering Intern",
		Department: "Engineering",
		Location:   "Remote / Los Angeles, CA",
		Type:       "Internship",
		Description: "Join as a software engineering intern and help build the core EzParkk platform from the ground up. " +
			"You'll touch real product features across our web app, native mobile experiences, and backend infrastructure. " +
			"This is a hands-on role where you'll ship production-quality code, participate in design discussions, " +
			"and see how a zero-to-one startup operates day to day.",
		Requirements: []string{
			"Currently pursuing a degree in Computer Science or related field",
			"Experience with any programming language (JavaScript, Python, Java, Swift, etc.)",
			"Interest in full-stack development, mobile apps, or backend systems",
			"Strong problem-solving and communication skills",
			"Passion for building products that solve real problems",
		},
	},
	{
		ID:         "marketing-intern",
		Title:      "Marketing Intern",
		Department: "Marketing",
		Location:   "Remote / Los Angeles, CA",
		Type:       "Internship",
		Description: "Help drive user acquisition and growth for EzParkk. You'll create social content (Instagram, TikTok, and more), " +
			"test growth experiments, support campus / city activations, and help build a modern brand in the parking and mobility space.",
		Requirements: []string{
			"Currently pursuing a degree in Marketing, Communications, or related field",
			"Interest in digital marketing channels (social, email, paid ads)",
			"Creative thinker with strong writing skills",
			"Eager to learn and contribute to growth initiatives",
		},
	},
	{
		ID:         "operations-intern",
		Title:      "Operations Intern",
		Department: "Operations",
		Location:   "Los Angeles, CA / Newport Beach, CA",
		Type:       "Internship",
		Description: "Help scale EzParkk across California. You'll work on city partnerships, host onboarding, customer support, " +
			"and learn how to run operations at a fast-growing startup.",
		Requirements: []string{
			"Currently pursuing a degree in Business, Operations, or related field",
			"Strong organizational and communication skills",
			"Interest in partnerships and business development",
			"Detail-oriented with excellent problem-solving abilities",
		},
	},
}
