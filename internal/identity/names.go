package identity

import (
	"fmt"
	"math/rand"
)

var (
	adjectives = []string{"Shadow", "Silent", "Mystic", "Neon", "Dark", "Phantom", "Ghost", "Void"}
	nouns      = []string{"Raven", "Wolf", "Phoenix", "Storm", "Blade", "Echo", "Cipher", "Wraith"}
)

// generateAnonymousName produces a display name like "Shadow_Raven_4821".
// Names are not guaranteed unique; the numeric suffix keeps collisions rare
// and they are cosmetic anyway.
func generateAnonymousName() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return fmt.Sprintf("%s_%s_%d", adj, noun, rand.Intn(10000))
}
