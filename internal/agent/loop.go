package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gaochao0609/GaoAgent/internal/llm"
	"github.com/gaochao0609/GaoAgent/internal/skills"
)

// DefaultMaxTurns bounds a run when the caller does not say otherwise.
const DefaultMaxTurns = 5

// Run statuses in the final result.
const (
	StatusCompleted     = "completed"
	StatusInputRequired = "input_required"
)

// Tool and skill names the loop treats specially: run_skill is the one
// dispatchable tool, and attraction lookups are gated on prior weather
// and local-time fetches for the same city.
const (
	toolRunSkill       = "run_skill"
	skillGetWeather    = "get-weather"
	skillGetLocalTime  = "get-local-time"
	skillGetAttraction = "get-attraction"
)

// Model-facing and user-facing error messages. These flow into
// observations and final answers, so they stay in the assistant's
// language.
const (
	msgEmptyInput      = "错误:用户输入为空。"
	msgNoAction        = "错误:模型输出中未找到 Action。"
	msgBadFinish       = "错误:模型finish格式无效。"
	msgBadToolCall     = "错误:模型工具调用格式无效。"
	msgTurnLimit       = "错误:超过最大循环次数，未完成任务。"
	msgNeedWeather     = "错误:必须先调用 get-weather 获取该城市的真实天气，再调用 get-attraction。"
	msgNeedLocalTime   = "错误:必须先调用 get-local-time 获取该城市的本地时间，再调用 get-attraction。"
	msgNoSkillName     = "错误:未提供技能名称。"
	msgUpstreamFailure = "错误:调用语言模型服务时出错 - %s"
	msgUnknownTool     = "错误:未定义的工具 '%s'"
)

// SkillSource is the slice of the skill registry the loop needs: the
// prompt catalog and dispatch.
type SkillSource interface {
	PromptBlock() string
	Invoke(ctx context.Context, name string, args map[string]string) (string, error)
}

// Loop drives agent runs against one model client and skill source.
type Loop struct {
	llm    llm.Client
	skills SkillSource
	logger *slog.Logger
}

func NewLoop(client llm.Client, skills SkillSource, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{llm: client, skills: skills, logger: logger}
}

// Request describes one run.
type Request struct {
	Prompt   string
	MaxTurns int

	// State resumes a prior run: its history becomes the initial
	// context and Prompt is folded in as the next user input. Nil
	// starts fresh.
	State *RunState

	// Trace asks for the joined step trace in the result.
	Trace bool

	// StreamDeltas turns on incremental answer streaming through
	// Emitter. Transcript events are emitted whenever Emitter is set.
	StreamDeltas bool
	Emitter      Emitter
}

// Result is the outcome of a run. Answer is always set — fatal run
// errors are reported as the answer text, never as a partial result.
type Result struct {
	Answer   string
	Trace    string
	Streamed bool
	Status   string
	State    *RunState
}

// Run executes the turn loop. All model, parse, and dispatch failures
// are reported in the Result; the returned error is non-nil only when
// ctx ends the run early.
func (l *Loop) Run(ctx context.Context, req Request) (*Result, error) {
	state := req.State
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		req.Emitter.transcript(SourceSystem, msgEmptyInput)
		return &Result{Answer: msgEmptyInput, Status: StatusCompleted, State: state}, nil
	}
	state = Resume(state, prompt)

	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	systemPrompt := BuildSystemPrompt(l.skills.PromptBlock())
	var traceSteps []string
	batcher := newDeltaBatcher(nil)
	if req.StreamDeltas && req.Emitter != nil {
		batcher = newDeltaBatcher(req.Emitter)
	}

	result := func(answer, status string) *Result {
		res := &Result{
			Answer:   answer,
			Status:   status,
			Streamed: batcher.Streamed(),
			State:    state,
		}
		if req.Trace {
			res.Trace = strings.Join(traceSteps, "\n")
		}
		return res
	}

	for i := 0; i < maxTurns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state.Turn++
		l.logger.Debug("agent turn", "turn", state.Turn)

		messages := []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: state.HistoryText()},
		}

		var output string
		var err error
		if req.StreamDeltas && req.Emitter != nil {
			// Fresh decoder per turn; the batcher spans the run so the
			// streamed flag survives into the result.
			decoder := NewAnswerDecoder(batcher.Write)
			output, err = l.llm.ChatStream(ctx, messages, decoder.Feed)
			batcher.Flush()
		} else {
			output, err = l.llm.Chat(ctx, messages)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			message := fmt.Sprintf(msgUpstreamFailure, err)
			traceSteps = append(traceSteps, message)
			req.Emitter.transcript(SourceSystem, message)
			return result(message, StatusCompleted), nil
		}

		output = TruncateThoughtAction(output)
		l.logger.Debug("model output", "turn", state.Turn, "output", output)
		state.AddModelOutput(output)

		action, parseErr := ParseAction(output)
		if parseErr != nil {
			traceSteps = append(traceSteps, output)
			var message string
			switch {
			case errors.Is(parseErr, ErrNoAction):
				message = msgNoAction
			case errors.Is(parseErr, ErrMalformedFinish):
				message = msgBadFinish
			default:
				message = msgBadToolCall
			}
			req.Emitter.transcript(SourceSystem, message)
			return result(message, StatusCompleted), nil
		}

		if action.Finish {
			traceSteps = append(traceSteps, output)
			answer := NormalizeAnswer(action.Answer)
			status := StatusCompleted
			if strings.Contains(answer, InputRequiredToken) {
				answer = strings.TrimSpace(strings.ReplaceAll(answer, InputRequiredToken, ""))
				status = StatusInputRequired
			}
			return result(answer, status), nil
		}

		observation := l.dispatch(ctx, state, action, req.Emitter)
		state.AddObservation(observation)
		traceSteps = append(traceSteps, fmt.Sprintf("%s\nObservation: %s", output, observation))
		req.Emitter.transcript(SourceTool, fmt.Sprintf("Observation: %s", observation))
	}

	req.Emitter.transcript(SourceSystem, msgTurnLimit)
	return result(msgTurnLimit, StatusCompleted), nil
}

// dispatch validates and executes one tool call, returning the
// observation text for the model. Dispatch never fails the run.
func (l *Loop) dispatch(ctx context.Context, state *RunState, action *Action, emitter Emitter) string {
	args := make(map[string]string, len(action.Args))
	for k, v := range action.Args {
		args[k] = v
	}
	skillName := args["name"]

	// An attraction lookup without a city inherits the city of the most
	// recent successful fetch, weather first.
	if action.Tool == toolRunSkill && skillName == skillGetAttraction && args["city"] == "" {
		args["city"] = state.PreferredCity()
	}

	emitter.transcript(SourceAssistant, fmt.Sprintf("Action: %s", action.Raw))

	if action.Tool == toolRunSkill && skillName == skillGetAttraction {
		if !state.HasWeatherFor(args["city"]) {
			return msgNeedWeather
		}
		if !state.HasLocalTimeFor(args["city"]) {
			return msgNeedLocalTime
		}
		if state.LastWeather != nil && args["weather"] == "" {
			args["weather"] = state.LastWeather.Value
		}
		if state.LastLocalTime != nil && args["local_time"] == "" {
			args["local_time"] = state.LastLocalTime.Value
		}
	}

	if action.Tool != toolRunSkill {
		return fmt.Sprintf(msgUnknownTool, action.Tool)
	}
	if strings.TrimSpace(skillName) == "" {
		return msgNoSkillName
	}

	skillArgs := make(map[string]string, len(args))
	for k, v := range args {
		if k != "name" {
			skillArgs[k] = v
		}
	}

	observation, err := l.skills.Invoke(ctx, skillName, skillArgs)
	if err != nil {
		l.logger.Warn("skill dispatch failed", "skill", skillName, "error", err)
		return fmt.Sprintf("错误:%s", dispatchMessage(err))
	}

	if skillName == skillGetWeather {
		state.RecordWeather(observation, args["city"])
	}
	if skillName == skillGetLocalTime {
		state.RecordLocalTime(observation, args["city"])
	}
	return observation
}

// dispatchMessage extracts the observation text for a failed dispatch:
// the registry's message when available, otherwise the raw error.
func dispatchMessage(err error) string {
	var de *skills.DispatchError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
