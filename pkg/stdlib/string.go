package stdlib

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var printer = message.NewPrinter(language.English)

// Format implements format(x[, spec]) for the specs scripts use to render
// numbers: "" (str), ",", ".Nf", ",.Nf", "%" and ".N%".
func Format(args []value.Value) (value.Value, error) {
	v := args[0]
	spec := ""
	if len(args) > 1 {
		var err error
		if spec, err = bridge.StringArg("format", args, 1); err != nil {
			return value.None, err
		}
	}
	if spec == "" {
		return value.String(v.Format()), nil
	}
	if !v.IsNumber() {
		return value.None, fmt.Errorf("%w: format spec %q needs a number, not '%s'", ErrValue, spec, v.TypeName())
	}

	grouped := strings.HasPrefix(spec, ",")
	rest := strings.TrimPrefix(spec, ",")
	percent := strings.HasSuffix(rest, "%")
	rest = strings.TrimSuffix(rest, "%")

	digits := -1
	if rest != "" {
		if !strings.HasPrefix(rest, ".") {
			return value.None, fmt.Errorf("%w: invalid format spec %q", ErrValue, spec)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(rest[1:], "f"))
		if err != nil || n < 0 {
			return value.None, fmt.Errorf("%w: invalid format spec %q", ErrValue, spec)
		}
		digits = n
	}

	var opts []number.Option
	if digits >= 0 {
		opts = append(opts, number.Scale(digits))
	}
	switch {
	case percent:
		return value.String(printer.Sprintf("%v", number.Percent(v.Float(), opts...))), nil
	case grouped:
		var x any = v.Float()
		if v.Type != value.TypeFloat {
			x = v.Int()
		}
		return value.String(printer.Sprintf("%v", number.Decimal(x, opts...))), nil
	}
	return value.String(strconv.FormatFloat(v.Float(), 'f', digits, 64)), nil
}
