package invoice

import (
	"fmt"

	"github.com/playerMars/final-ocr/internal/entity"
)

type warnings []entity.Warning

func (w *warnings) add(kind entity.WarningKind, field string, line int, format string, args ...any) {
	*w = append(*w, entity.Warning{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	})
}
