package agent

import "fmt"

// Turn roles in the run history.
const (
	RoleRequest     = "request"
	RoleModelOutput = "model_output"
	RoleObservation = "observation"
)

// Turn is one line of the run history: a user request, a model
// Thought/Action reply, or an observation fed back to the model.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Fetch records one successful skill result together with the city it
// was fetched for. The city keys the dependency gate: an attraction
// lookup for a city needs a weather and a local-time fetch for that
// same city first.
type Fetch struct {
	Value string `json:"value"`
	City  string `json:"city"`
}

// RunState is the serializable conversation state handed back to the
// caller between runs. Resuming folds the new prompt into History and
// starts a fresh turn budget.
type RunState struct {
	Turn          int    `json:"turn"`
	History       []Turn `json:"history"`
	LastWeather   *Fetch `json:"last_weather,omitempty"`
	LastLocalTime *Fetch `json:"last_local_time,omitempty"`
}

// NewRunState starts a run from a user prompt.
func NewRunState(prompt string) *RunState {
	s := &RunState{}
	s.AddRequest(prompt)
	return s
}

// Resume folds a follow-up prompt into existing state. A nil state
// behaves like a fresh run.
func Resume(state *RunState, prompt string) *RunState {
	if state == nil {
		return NewRunState(prompt)
	}
	state.AddRequest(prompt)
	return state
}

func (s *RunState) AddRequest(prompt string) {
	s.History = append(s.History, Turn{Role: RoleRequest, Text: fmt.Sprintf("用户请求: %s", prompt)})
}

func (s *RunState) AddModelOutput(text string) {
	s.History = append(s.History, Turn{Role: RoleModelOutput, Text: text})
}

func (s *RunState) AddObservation(text string) {
	s.History = append(s.History, Turn{Role: RoleObservation, Text: fmt.Sprintf("Observation: %s", text)})
}

// RecordWeather notes a successful weather fetch. An empty city still
// records the value but can never satisfy the dependency gate.
func (s *RunState) RecordWeather(value, city string) {
	s.LastWeather = &Fetch{Value: value, City: city}
}

func (s *RunState) RecordLocalTime(value, city string) {
	s.LastLocalTime = &Fetch{Value: value, City: city}
}

// HasWeatherFor reports whether a successful weather fetch exists for
// city. Empty cities never match.
func (s *RunState) HasWeatherFor(city string) bool {
	return s.LastWeather != nil && city != "" && s.LastWeather.City == city
}

func (s *RunState) HasLocalTimeFor(city string) bool {
	return s.LastLocalTime != nil && city != "" && s.LastLocalTime.City == city
}

// PreferredCity picks the city for backfilling an attraction lookup
// that arrived without one: the weather city wins, then the local-time
// city.
func (s *RunState) PreferredCity() string {
	if s.LastWeather != nil && s.LastWeather.City != "" {
		return s.LastWeather.City
	}
	if s.LastLocalTime != nil && s.LastLocalTime.City != "" {
		return s.LastLocalTime.City
	}
	return ""
}

// HistoryText renders the history as the prompt context block, one
// entry per line.
func (s *RunState) HistoryText() string {
	var out string
	for i, t := range s.History {
		if i > 0 {
			out += "\n"
		}
		out += t.Text
	}
	return out
}
