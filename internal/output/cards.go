// SPDX-License-Identifier: EPL-2.0

package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCardsPath lists the ALSA sound cards on Linux.
const DefaultCardsPath = "/proc/asound/cards"

// DefaultDACKeywords identify add-on DACs by card name.
var DefaultDACKeywords = []string{
	"dac", "hifiberry", "i2s", "snd_rpi_hifiberry_dac", "speaker", "audioinjector", "allo piano",
}

// Card is one ALSA sound card.
type Card struct {
	Index  int
	ID     string
	Driver string
	Name   string
}

var cardLine = regexp.MustCompile(`^\s*(\d+)\s+\[([^\]]*)\]:\s*(\S*)\s*-\s*(.*)$`)

// ParseCards reads the /proc/asound/cards format.
func ParseCards(r io.Reader) ([]Card, error) {
	var cards []Card

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := cardLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}

		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cards = append(cards, Card{
			Index:  idx,
			ID:     strings.TrimSpace(m[2]),
			Driver: m[3],
			Name:   strings.TrimSpace(m[4]),
		})
	}

	return cards, sc.Err()
}

// FindDAC returns the first card whose ID or name contains a keyword.
func FindDAC(cards []Card, keywords []string) (Card, bool) {
	for _, c := range cards {
		hay := strings.ToLower(c.ID + " " + c.Name)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(hay, strings.ToLower(kw)) {
				return c, true
			}
		}
	}

	return Card{}, false
}

// ErrNoSuchCard reports an explicitly requested card that is not installed.
var ErrNoSuchCard = errors.New("no such sound card")

// SelectCard picks the card named by want, which is a card index or a card
// ID or name. An empty want picks the first card matching a DAC keyword. ok
// is false when the default device should be used.
func SelectCard(path, want string, keywords []string) (Card, bool, error) {
	want = strings.TrimSpace(want)
	index := -1
	name := ""
	if want != "" {
		if n, err := strconv.Atoi(want); err == nil && n >= 0 {
			index = n
		} else {
			name = want
		}
	}

	if path == "" {
		path = DefaultCardsPath
	}
	if keywords == nil {
		keywords = DefaultDACKeywords
	}

	f, err := os.Open(path)
	if err != nil {
		if index >= 0 {
			// The index is usable without the card list.
			return Card{Index: index}, true, nil
		}
		return Card{}, false, fmt.Errorf("%w", err)
	}
	defer f.Close()

	cards, err := ParseCards(f)
	if err != nil {
		return Card{}, false, fmt.Errorf("%s: %w", path, err)
	}

	switch {
	case index >= 0:
		for _, c := range cards {
			if c.Index == index {
				return c, true, nil
			}
		}
		return Card{}, false, fmt.Errorf("%w: %d", ErrNoSuchCard, index)
	case name != "":
		for _, c := range cards {
			if strings.EqualFold(c.ID, name) || strings.EqualFold(c.Name, name) {
				return c, true, nil
			}
		}
		return Card{}, false, fmt.Errorf("%w: %q", ErrNoSuchCard, name)
	}

	c, ok := FindDAC(cards, keywords)

	return c, ok, nil
}

// Route points the ALSA default device at card.
func Route(card Card) error {
	return os.Setenv("ALSA_CARD", strconv.Itoa(card.Index))
}
