package generation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/terra-clan/learnpath/internal/models"
)

// looseString accepts a JSON string, number or bool. Anything else decodes
// to the empty string.
type looseString struct {
	value   string
	numeric bool
}

func (s *looseString) UnmarshalJSON(data []byte) error {
	*s = looseString{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &s.value)
	case 't', 'f':
		s.value = string(data)
	case 'n', '[', '{':
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			s.value = n.String()
			s.numeric = true
		}
	}
	return nil
}

// looseInt accepts a JSON number or a numeric string, rounding fractions.
// Unparseable values decode to zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = looseInt(math.Round(f))
	return nil
}

// wireTechnique is a technique as the model writes it
type wireTechnique struct {
	ID            looseString   `json:"id"`
	Name          looseString   `json:"name"`
	Description   looseString   `json:"description"`
	TimeToMaster  looseString   `json:"timeToMaster"`
	Difficulty    looseInt      `json:"difficulty"`
	Prerequisites []looseString `json:"prerequisites"`
}

// technique converts to the model type. A bare number for time to master
// is read as hours, matching what the prompt asks for.
func (w wireTechnique) technique() models.Technique {
	t := models.Technique{
		ID:            w.ID.value,
		Name:          w.Name.value,
		Description:   w.Description.value,
		TimeToMaster:  w.TimeToMaster.value,
		Difficulty:    int(w.Difficulty),
		Prerequisites: make([]string, 0, len(w.Prerequisites)),
	}
	if w.TimeToMaster.numeric {
		unit := " hours"
		if w.TimeToMaster.value == "1" {
			unit = " hour"
		}
		t.TimeToMaster += unit
	}
	for _, p := range w.Prerequisites {
		if p.value != "" {
			t.Prerequisites = append(t.Prerequisites, p.value)
		}
	}
	return t
}

// decodePath decodes the first JSON array in text as a learning path
func decodePath(text string) (models.LearningPath, error) {
	var wire []wireTechnique
	if err := DecodeJSON(text, '[', &wire); err != nil {
		return nil, err
	}

	path := make(models.LearningPath, 0, len(wire))
	for _, w := range wire {
		path = append(path, w.technique())
	}
	return path, nil
}
