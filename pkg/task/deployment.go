package task

import (
	"fmt"
	"strings"
)

// Deployment selects which family of kinds an agent plans and runs. Every
// deployment shares the planner, executor and memory machinery.
type Deployment string

const (
	DeploymentPantryPlay     Deployment = "pantry_play"
	DeploymentHealthInsights Deployment = "health_insights"
)

// Deployments returns the known deployments, the default first.
func Deployments() []Deployment {
	return []Deployment{DeploymentPantryPlay, DeploymentHealthInsights}
}

// ParseDeployment converts a string into a Deployment. The empty string
// selects Pantry Play.
func ParseDeployment(s string) (Deployment, error) {
	switch d := Deployment(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DeploymentPantryPlay, nil
	case DeploymentPantryPlay, DeploymentHealthInsights:
		return d, nil
	default:
		return "", fmt.Errorf("unknown deployment %q", s)
	}
}

// Kinds returns the kinds the deployment plans, in canonical order.
func (d Deployment) Kinds() []Kind {
	switch d {
	case DeploymentHealthInsights:
		return append([]Kind(nil), healthKinds...)
	case DeploymentPantryPlay:
		return append([]Kind(nil), pantryKinds...)
	}
	return nil
}

// Deployment returns the deployment k belongs to.
func (k Kind) Deployment() Deployment {
	for _, h := range healthKinds {
		if k == h {
			return DeploymentHealthInsights
		}
	}
	return DeploymentPantryPlay
}

func (d Deployment) String() string { return string(d) }
