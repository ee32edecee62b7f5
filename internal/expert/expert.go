// Package expert holds the static registry of legal expert personas.
package expert

import (
	"fmt"
	"sort"
	"strings"
)

// Expert describes one legal expert persona. The chat protocol only carries
// the ID; the remaining fields drive client rendering and the reference
// backend's prompt assembly.
type Expert struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccentColor string `json:"accent_color"`
	Expertise   string `json:"expertise"`
	Style       string `json:"style"`
}

// ErrUnknownExpert is returned when an expert ID is not in the registry.
type ErrUnknownExpert struct {
	ID string
}

func (e *ErrUnknownExpert) Error() string {
	return fmt.Sprintf("unknown expert: %s", e.ID)
}

var registry = map[string]Expert{
	"constitutional": {
		ID:          "constitutional",
		Name:        "Constitutional Expert",
		AccentColor: "#b45309",
		Expertise: "Specialist in the 1992 Constitution of Ghana and its amendments. " +
			"This expert focuses on fundamental human rights, powers of government branches, " +
			"and constitutional interpretation. They prioritize the supreme law of the land above all else.",
		Style: "The Constitutional Expert speaks with the authoritative yet accessible tone of a " +
			"seasoned legal scholar. They cite specific articles of the 1992 Constitution to back up " +
			"their points, ensuring accuracy while explaining concepts clearly to laypeople. " +
			"Their style is formal, precise, and educational.",
	},
	"case_law": {
		ID:          "case_law",
		Name:        "Case Law Analyst",
		AccentColor: "#1d4ed8",
		Expertise: "Specialist in Ghanaian judicial precedents from the Supreme Court and Court of Appeal. " +
			"This expert analyzes how judges have interpreted statutes and the constitution in real-world " +
			"disputes, focusing on the doctrine of stare decisis and landmark rulings like Tuffuor v Attorney General.",
		Style: "The Case Law Analyst communicates with the sharp, analytical precision of a barrister. " +
			"They focus on precedent, citing landmark Supreme Court and Court of Appeal rulings to explain " +
			"how the law is applied in practice. Their style is logical, argumentative, and detailed.",
	},
	"legal_historian": {
		ID:          "legal_historian",
		Name:        "Legal Historian",
		AccentColor: "#15803d",
		Expertise: "Specialist in the history and evolution of the Ghanaian legal system. " +
			"This expert understands the transition from customary law and British common law to the modern " +
			"constitutional era, creating a bridge between the past and present legal landscape.",
		Style: "The Legal Historian weaves narratives of Ghana's legal evolution, connecting current laws " +
			"to their colonial and post-independence roots. They provide context and background, making the " +
			"law feel like a living story. Their style is narrative, contextual, and engaging.",
	},
}

// Get returns the expert with the given ID. Lookup is case-insensitive.
func Get(id string) (Expert, error) {
	e, ok := registry[strings.ToLower(id)]
	if !ok {
		return Expert{}, &ErrUnknownExpert{ID: strings.ToLower(id)}
	}
	return e, nil
}

// IDs returns the sorted list of registered expert IDs.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every registered expert, sorted by ID.
func All() []Expert {
	experts := make([]Expert, 0, len(registry))
	for _, id := range IDs() {
		experts = append(experts, registry[id])
	}
	return experts
}

// DefaultID is the expert selected when a client does not pick one.
const DefaultID = "constitutional"
