package orbsim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OrbitInput are the user provided initial conditions.
type OrbitInput struct {
	Name string
	Body CelestialObject
	R0   float64 // m
	V0   float64 // m/s
}

// FallbackName names the body built from the defaults after malformed input, so that the
// report shows the answers were discarded.
const FallbackName = "Тело по умолчанию"

// DefaultOrbitInput is used for every field the user leaves empty, and for all of them on
// malformed input.
func DefaultOrbitInput() OrbitInput {
	return OrbitInput{Name: "Body", Body: Sun, R0: 1.496e11, V0: 30000}
}

func (in OrbitInput) fallback() OrbitInput {
	in.Name = FallbackName
	return in
}

// Orbit returns the orbit definition of this input.
func (in OrbitInput) Orbit() (*OrbitDefinition, error) {
	return NewOrbitAround(in.Name, in.Body, in.R0, in.V0)
}

// Prompter asks questions on a writer and reads the answers line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a prompter. Use a single prompter per input stream since it buffers.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w}
}

// ask returns the trimmed answer, empty at the end of the input.
func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptOrbit is a shortcut for NewPrompter(r, w).Orbit(defaults).
func PromptOrbit(r io.Reader, w io.Writer, defaults OrbitInput) (OrbitInput, error) {
	return NewPrompter(r, w).Orbit(defaults)
}

// Orbit asks for r0, v0 and the name of the body.
// An empty answer (or the end of the input) keeps the default of that field. If a number
// cannot be parsed, all the defaults are returned, named FallbackName, with an error
// wrapping ErrParse.
func (p *Prompter) Orbit(defaults OrbitInput) (OrbitInput, error) {
	var answers [3]string
	questions := [3]string{
		fmt.Sprintf("Initial distance in meters (default %g): ", defaults.R0),
		fmt.Sprintf("Initial speed in m/s (default %g): ", defaults.V0),
		fmt.Sprintf("Name of the body (default '%s'): ", defaults.Name),
	}
	for i, q := range questions {
		answer, err := p.ask(q)
		if err != nil {
			return defaults.fallback(), fmt.Errorf("%w: %s", ErrParse, err)
		}
		answers[i] = answer
	}

	in := defaults
	var err error
	if answers[0] != "" {
		if in.R0, err = parseNumber(answers[0]); err != nil {
			return defaults.fallback(), fmt.Errorf("%w: r0 `%s`", ErrParse, answers[0])
		}
	}
	if answers[1] != "" {
		if in.V0, err = parseNumber(answers[1]); err != nil {
			return defaults.fallback(), fmt.Errorf("%w: v0 `%s`", ErrParse, answers[1])
		}
	}
	if answers[2] != "" {
		in.Name = answers[2]
	}
	return in, nil
}

// YesNo asks a yes/no question and returns false on anything but an affirmative answer.
func (p *Prompter) YesNo(question string) bool {
	answer, err := p.ask(question + " (да/нет): ")
	return err == nil && IsYes(answer)
}

// parseNumber also accepts a decimal comma.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// IsYes returns whether the answer is affirmative, in Russian or in English.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "да", "д", "y", "yes":
		return true
	}
	return false
}

// AskYesNo is a shortcut for NewPrompter(r, w).YesNo(question).
func AskYesNo(r io.Reader, w io.Writer, question string) bool {
	return NewPrompter(r, w).YesNo(question)
}
