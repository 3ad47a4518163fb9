package tunnel

import (
	"bytes"
	"sync"
	"text/template"
	"time"

	"github.com/cloudflare/golibs/ewma"
)

const STATS_HALF_LIFE = time.Minute

// Stats counts the traffic of one chat session. Both loops update it,
// so it carries its own lock.
type Stats struct {
	lock      sync.Mutex
	startTime time.Time
	sentMsg   int64
	sentBytes int64
	recvMsg   int64
	recvBytes int64
	avgOut    *ewma.Ewma
	avgIn     *ewma.Ewma
}

func newStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		avgOut:    ewma.NewEwma(STATS_HALF_LIFE),
		avgIn:     ewma.NewEwma(STATS_HALF_LIFE),
	}
}

func (s *Stats) sent(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sentMsg++
	s.sentBytes += int64(n)
	s.avgOut.Update(float64(n), time.Now())
}

func (s *Stats) received(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.recvMsg++
	s.recvBytes += int64(n)
	s.avgIn.Update(float64(n), time.Now())
}

type statsView struct {
	Version  string
	Role     string
	State    string
	Peer     string
	Uptime   time.Duration
	SentMsg  int64
	SentSize string
	AvgOut   int64
	RecvMsg  int64
	RecvSize string
	AvgIn    int64
}

func (s *Stats) view(role Role, state State, peer string) *statsView {
	s.lock.Lock()
	defer s.lock.Unlock()
	return &statsView{
		Version:  VER_STRING,
		Role:     role.Label(),
		State:    state.String(),
		Peer:     peer,
		Uptime:   time.Since(s.startTime).Round(time.Second),
		SentMsg:  s.sentMsg,
		SentSize: i64HumanSize(s.sentBytes),
		AvgOut:   int64(s.avgOut.Current),
		RecvMsg:  s.recvMsg,
		RecvSize: i64HumanSize(s.recvBytes),
		AvgIn:    int64(s.avgIn.Current),
	}
}

var statsTemplate = template.Must(template.New("stats").Parse(_TPL_STATS))

func (s *Stats) render(role Role, state State, peer string) string {
	var buf = new(bytes.Buffer)
	if err := statsTemplate.Execute(buf, s.view(role, state, peer)); err != nil {
		return err.Error()
	}
	return buf.String()
}

const _TPL_STATS = `-------- {{.Role}} {{.State}} --------
{{if .Version}}{{.Version}}
{{end}}Peer:      {{if .Peer}}{{.Peer}}{{else}}-{{end}}
Uptime:    {{.Uptime}}
Sent:      {{.SentMsg}} messages, {{.SentSize}}, avg {{.AvgOut}} bytes
Received:  {{.RecvMsg}} messages, {{.RecvSize}}, avg {{.AvgIn}} bytes
`
