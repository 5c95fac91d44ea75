package versions

import (
	"encoding/base64"
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

const DefaultItemPerPage = 20

// Cursor is an opaque pagination position handed to API consumers as
// base64-encoded json. Position is the version id of the last item on the
// previous page; listing walks newest to oldest, so the next page holds ids
// strictly older than the position.
type Cursor struct {
	Position string `json:"p"`

	parsePos bool      `json:"-"`
	ulidPos  ulid.ULID `json:"-"`
}

func CursorFromString(data string) (*Cursor, error) {
	c := &Cursor{
		Position: "",
		parsePos: false,
		ulidPos:  ulid.Zero,
	}

	if data == "" {
		return c, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return c, ErrInvalidCursor
	}

	if err = json.Unmarshal(decoded, c); err != nil {
		return c, ErrInvalidCursor
	}

	return c, nil
}

func NewCursor(position string) *Cursor {
	return &Cursor{Position: position}
}

func (c *Cursor) IsZero() bool {
	return c.Position == ""
}

func (c *Cursor) String() string {
	d, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.StdEncoding.EncodeToString(d)
}

// Before reports whether value sits after the cursor in newest-to-oldest
// order, i.e. is strictly older than the cursor position.
func (c *Cursor) Before(value ulid.ULID) bool {
	if c.IsZero() {
		return true
	}

	if !c.parsePos {
		var err error
		c.ulidPos, err = ulid.Parse(c.Position)
		if err != nil {
			c.ulidPos = ulid.Zero
		}
		c.parsePos = true
	}

	return value.Compare(c.ulidPos) < 0
}

// SetupPagination validates the raw cursor and page size from a request.
func SetupPagination(cursorStr string, itemPerPage int) (*Cursor, int, error) {
	cursor, err := CursorFromString(cursorStr)
	if err != nil {
		return nil, 0, err
	}

	if itemPerPage < 0 {
		return nil, 0, NewValidationError("item per page cannot be negative")
	}
	if itemPerPage == 0 {
		itemPerPage = DefaultItemPerPage
	}

	return cursor, itemPerPage, nil
}
