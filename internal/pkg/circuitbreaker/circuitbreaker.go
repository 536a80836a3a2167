package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen은 breaker가 열려 있어 호출을 건너뛸 때 반환됩니다
	ErrOpen = errors.New("circuit breaker is open")

	// ErrTooManyProbes는 half-open 상태에서 시험 호출 수를 넘었을 때 반환됩니다
	ErrTooManyProbes = errors.New("too many requests while half-open")
)

// State는 breaker 상태입니다
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config는 breaker 설정입니다
type Config struct {
	// FailureThreshold번 연속 실패하면 열립니다
	FailureThreshold uint32
	// OpenTimeout 동안 열린 뒤 half-open으로 전환됩니다
	OpenTimeout time.Duration
	// half-open 상태에서 허용하는 시험 호출 수. 모두 성공하면 닫힙니다
	HalfOpenRequests uint32
	OnStateChange    func(name string, from, to State)
}

// Breaker는 연속 실패 횟수 기반 circuit breaker입니다
type Breaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	failures   uint32
	successes  uint32
	inFlight   uint32
	openedAt   time.Time
	changes    []stateChange
}

type stateChange struct {
	from, to State
}

// New는 새로운 Breaker를 생성합니다
func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// Do는 breaker가 허용하면 fn을 실행하고 결과를 기록합니다
// fn이 끝나기 전에 상태가 바뀌었다면 그 결과는 새 상태에 반영되지 않습니다
func (b *Breaker) Do(fn func() error) error {
	generation, err := b.before()
	if err != nil {
		return err
	}

	err = fn()
	b.after(generation, err == nil)
	return err
}

// State는 현재 상태를 반환합니다
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.unlock()

	b.advance()
	return b.state
}

func (b *Breaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return 0, ErrOpen
	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenRequests {
			return 0, ErrTooManyProbes
		}
		b.inFlight++
	}
	return b.generation, nil
}

func (b *Breaker) after(generation uint64, success bool) {
	b.mu.Lock()
	defer b.unlock()

	b.advance()
	if generation != b.generation {
		return
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenRequests {
			b.transition(StateClosed)
		}
	}
}

// advance는 open 시간이 지났으면 half-open으로 전환합니다
func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.transition(StateHalfOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.generation++
	b.failures = 0
	b.successes = 0
	b.inFlight = 0
	if to == StateOpen {
		b.openedAt = b.now()
	}

	if from != to {
		b.changes = append(b.changes, stateChange{from: from, to: to})
	}
}

// unlock은 잠금을 해제한 뒤 쌓인 상태 변경을 OnStateChange로 통지합니다
func (b *Breaker) unlock() {
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	if b.cfg.OnStateChange == nil {
		return
	}
	for _, c := range changes {
		b.cfg.OnStateChange(b.name, c.from, c.to)
	}
}
