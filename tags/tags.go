// Package tags holds the default genre vocabulary loaded into state at
// genesis. A tag's id is its position in the list.
package tags

import (
	"fmt"

	"github.com/liganite/liganite/core"
)

// Default is the built-in vocabulary used when the genesis config does not
// provide one.
var Default = []string{
	"Action",
	"Adventure",
	"Arcade",
	"Board Game",
	"Card Game",
	"Casual",
	"City Builder",
	"Co-op",
	"Educational",
	"Fighting",
	"Horror",
	"Indie",
	"Massively Multiplayer",
	"Metroidvania",
	"Multiplayer",
	"Music",
	"Open World",
	"Platformer",
	"Puzzle",
	"Racing",
	"Roguelike",
	"Role-Playing",
	"Sandbox",
	"Shooter",
	"Simulation",
	"Singleplayer",
	"Sports",
	"Stealth",
	"Strategy",
	"Survival",
	"Tower Defense",
	"Turn-Based",
	"Visual Novel",
}

// Validate checks that every tag fits the size limit and that the list
// fits the id space.
func Validate(vocab []string) error {
	if len(vocab) > 1<<16 {
		return fmt.Errorf("vocabulary has %d tags, at most %d fit", len(vocab), 1<<16)
	}
	for i, tag := range vocab {
		if !core.IsNonEmptyString(tag, core.MaxTagSize) {
			return fmt.Errorf("tag %d %q: must be 1..%d bytes of UTF-8", i, tag, core.MaxTagSize)
		}
	}
	return nil
}

// Writer is implemented by state that accepts vocabulary entries.
type Writer interface {
	PutTag(id core.TagID, tag string)
}

// Load validates vocab and writes it into w with ids starting at 0.
func Load(w Writer, vocab []string) error {
	if err := Validate(vocab); err != nil {
		return err
	}
	for i, tag := range vocab {
		w.PutTag(core.TagID(i), tag)
	}
	return nil
}
