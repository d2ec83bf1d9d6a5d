package quiz

import "github.com/google/uuid"

type Field string

const (
	FieldStatus Field = "status"
	FieldPoints Field = "points"
	FieldMisses Field = "misses"
	FieldRank   Field = "rank"
	FieldStars  Field = "stars"
)

// FieldEdit is one contestant's manual correction. Nil fields are left untouched.
type FieldEdit struct {
	PlayerID uuid.UUID `json:"player_id"`
	Status   *Status   `json:"status,omitempty"`
	Points   *int      `json:"points,omitempty"`
	Misses   *int      `json:"misses,omitempty"`
	Rank     *int      `json:"rank,omitempty"`
	Stars    *int      `json:"stars,omitempty"`
}

// Fields lists the fields this edit touches.
func (e FieldEdit) Fields() []Field {
	var fields []Field
	if e.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if e.Points != nil {
		fields = append(fields, FieldPoints)
	}
	if e.Misses != nil {
		fields = append(fields, FieldMisses)
	}
	if e.Rank != nil {
		fields = append(fields, FieldRank)
	}
	if e.Stars != nil {
		fields = append(fields, FieldStars)
	}
	return fields
}
