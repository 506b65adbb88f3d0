package kiosk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
)

type recordingRenderer struct {
	banners []announce.Announcement
	popups  []announce.Announcement
	dismiss func()
}

func (r *recordingRenderer) ShowBanner(msg announce.Announcement, dismiss func()) {
	r.banners = append(r.banners, msg)
	r.dismiss = dismiss
}

func (r *recordingRenderer) ShowPopup(msg announce.Announcement, dismiss func()) {
	r.popups = append(r.popups, msg)
	r.dismiss = dismiss
}

type recordingChimer struct {
	types []announce.Type
}

func (c *recordingChimer) Chime(announcementType announce.Type) {
	c.types = append(c.types, announcementType)
}

type recordingNarrator struct {
	narrated []int64
	stopped  bool
}

func (n *recordingNarrator) Narrate(msg announce.Announcement) {
	n.narrated = append(n.narrated, msg.ID)
}

func (n *recordingNarrator) Stop() {
	n.stopped = true
}

type recordingDismisser struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (d *recordingDismisser) Dismiss(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return d.err
}

func (d *recordingDismisser) dismissed() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.ids...)
}

type manualTimer struct {
	duration time.Duration
	fire     func()
	cancels  int
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) schedule(d time.Duration, fn func()) func() {
	timer := &manualTimer{duration: d, fire: fn}
	s.timers = append(s.timers, timer)
	return func() { timer.cancels++ }
}

type pipelineFixture struct {
	pipeline  *Pipeline
	renderer  *recordingRenderer
	chimer    *recordingChimer
	narrator  *recordingNarrator
	dismisser *recordingDismisser
	scheduler *manualScheduler
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	fixture := &pipelineFixture{
		renderer:  &recordingRenderer{},
		chimer:    &recordingChimer{},
		narrator:  &recordingNarrator{},
		dismisser: &recordingDismisser{},
		scheduler: &manualScheduler{},
	}
	pipeline, err := NewPipeline(PipelineConfig{
		Renderer:  fixture.renderer,
		Chimer:    fixture.chimer,
		Narrator:  fixture.narrator,
		Dismisser: fixture.dismisser,
		Schedule:  fixture.scheduler.schedule,
	})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}
	fixture.pipeline = pipeline
	return fixture
}

func TestDeliverRendersEachIDExactlyOnce(t *testing.T) {
	fixture := newPipelineFixture(t)
	record := announce.Announcement{ID: 5, Text: "hello", Type: announce.TypeInfo, Display: announce.DisplayBanner, TTS: true}

	fixture.pipeline.Deliver(record)
	fixture.pipeline.Deliver(record)

	if len(fixture.renderer.banners) != 1 {
		t.Fatalf("rendered %d times, expected once", len(fixture.renderer.banners))
	}
	if len(fixture.chimer.types) != 1 {
		t.Fatalf("chimed %d times, expected once", len(fixture.chimer.types))
	}
	if len(fixture.narrator.narrated) != 1 {
		t.Fatalf("narrated %d times, expected once", len(fixture.narrator.narrated))
	}
}

func TestDeliverRoutesByDisplay(t *testing.T) {
	fixture := newPipelineFixture(t)

	fixture.pipeline.Deliver(announce.Announcement{ID: 1, Text: "strip", Display: announce.DisplayBanner})
	fixture.pipeline.Deliver(announce.Announcement{ID: 2, Text: "modal", Display: announce.DisplayPopup})

	if len(fixture.renderer.banners) != 1 || fixture.renderer.banners[0].ID != 1 {
		t.Fatalf("unexpected banners: %+v", fixture.renderer.banners)
	}
	if len(fixture.renderer.popups) != 1 || fixture.renderer.popups[0].ID != 2 {
		t.Fatalf("unexpected popups: %+v", fixture.renderer.popups)
	}
}

func TestDeliverChimesWithTheRecordType(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 1, Text: "m", Type: announce.TypeEmergency})
	if len(fixture.chimer.types) != 1 || fixture.chimer.types[0] != announce.TypeEmergency {
		t.Fatalf("unexpected chimes: %v", fixture.chimer.types)
	}
}

func TestDeliverSkipsNarrationWithoutTTS(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 1, Text: "quiet"})
	if len(fixture.narrator.narrated) != 0 {
		t.Fatalf("narrated a non-tts record: %v", fixture.narrator.narrated)
	}
}

func TestAutoDismissFiresExactlyOnce(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 7, Text: "m", Duration: 3})

	if len(fixture.scheduler.timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(fixture.scheduler.timers))
	}
	timer := fixture.scheduler.timers[0]
	if timer.duration != 3*time.Second {
		t.Fatalf("timer armed for %v, expected 3s", timer.duration)
	}

	timer.fire()
	timer.fire()
	if ids := fixture.dismisser.dismissed(); len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("expected one dismissal of id 7, got %v", ids)
	}
}

func TestManualDismissCancelsTheTimer(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 3, Text: "m", Duration: 30})

	fixture.renderer.dismiss()
	timer := fixture.scheduler.timers[0]
	if timer.cancels == 0 {
		t.Fatal("manual dismissal should cancel the auto-dismiss timer")
	}

	timer.fire()
	if ids := fixture.dismisser.dismissed(); len(ids) != 1 {
		t.Fatalf("expected a single dismissal, got %v", ids)
	}
}

func TestZeroDurationRecordsGetNoTimer(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 4, Text: "persistent", Duration: 0})
	if len(fixture.scheduler.timers) != 0 {
		t.Fatalf("expected no timer for duration 0, got %d", len(fixture.scheduler.timers))
	}
}

func TestDismissFailureIsSwallowed(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.dismisser.err = errors.New("server unreachable")

	fixture.pipeline.Deliver(announce.Announcement{ID: 9, Text: "m"})
	fixture.renderer.dismiss()
	fixture.renderer.dismiss()

	if ids := fixture.dismisser.dismissed(); len(ids) != 1 {
		t.Fatalf("expected a single best-effort dismissal, got %v", ids)
	}
}

func TestStopCancelsPendingTimersAndNarration(t *testing.T) {
	fixture := newPipelineFixture(t)
	fixture.pipeline.Deliver(announce.Announcement{ID: 1, Text: "m", Duration: 60})
	fixture.pipeline.Deliver(announce.Announcement{ID: 2, Text: "m", Duration: 60})

	fixture.pipeline.Stop()

	for i, timer := range fixture.scheduler.timers {
		if timer.cancels == 0 {
			t.Fatalf("timer %d not cancelled by Stop", i)
		}
	}
	if !fixture.narrator.stopped {
		t.Fatal("Stop must cancel narration")
	}

	fixture.pipeline.Deliver(announce.Announcement{ID: 3, Text: "late"})
	if len(fixture.renderer.banners) != 2 {
		t.Fatalf("a stopped pipeline delivered a record: %+v", fixture.renderer.banners)
	}
}
