package persona

import (
	"github.com/google/uuid"

	id "spamstopper/pkg/domain"
)

// Catalog IDs are fixed so subscriber rows can reference personas across
// deployments and restarts.
var (
	HerbertID = id.PersonaID(uuid.MustParse("1caa5cf2-4a40-4f89-8807-e2f2c0b282ad"))
	JoleneID  = id.PersonaID(uuid.MustParse("2f1be34c-73d0-4b9f-9f0a-cde1ff4255a1"))
	DerekID   = id.PersonaID(uuid.MustParse("3ac7c2b1-08a9-4d59-93d5-5bf28a09c44e"))
	DannyID   = id.PersonaID(uuid.MustParse("4d9f01ea-61cb-4a2d-88b2-45c0ce2ed1b9"))
)

// DefaultCatalog returns the built-in screening characters.
func DefaultCatalog() []Persona {
	return []Persona{
		{
			ID:          HerbertID,
			Name:        "Herbert",
			Description: "Friendly elderly gentleman who rambles",
			Personality: "rambling, friendly, storytelling",
			AssistantID: "37c03d2d-c045-42f5-b8f5-53beca2b34d8",
		},
		{
			ID:          JoleneID,
			Name:        "Jolene",
			Description: "Sweet but incredibly talkative",
			Personality: "talkative, sweet, never stops chatting",
			AssistantID: "23ed87ac-9f1e-4353-a3aa-c27d70d93342",
		},
		{
			ID:          DerekID,
			Name:        "Derek",
			Description: "Cryptocurrency day-trader and amateur conspiracy researcher",
			Personality: "crypto-obsessed, conspiracy theories, suspicious",
			AssistantID: "d99eeb74-6dad-4149-ac33-e2c7bb0dba57",
		},
		{
			ID:          DannyID,
			Name:        "Danny",
			Description: "Aspiring standup comedian who works at a call center",
			Personality: "jokes around, makes awkward comedy attempts",
			AssistantID: "b2243844-0748-442f-b7c8-395b6f342e0f",
		},
	}
}
