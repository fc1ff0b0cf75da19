package stream

import (
	"math"
	"testing"

	"featex/internal/dsp"
)

func newTestProcessor(t *testing.T, blockSize int, cfg ProcessorConfig) *Processor {
	t.Helper()
	alg, err := dsp.New("rms", blockSize, 44100)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := dsp.NewInvoker(alg, blockSize)
	if err != nil {
		t.Fatal(err)
	}
	return NewProcessor(iv, cfg)
}

func quantum(blockSize int, value float32) []float32 {
	in := make([]float32, blockSize)
	for i := range in {
		in[i] = value
	}
	return in
}

// drain collects whatever is currently queued.
func drain(p *Processor) []dsp.FeatureResult {
	var out []dsp.FeatureResult
	for {
		select {
		case res := <-p.Results():
			out = append(out, res)
		default:
			return out
		}
	}
}

func TestIdleProcessorIgnoresQuanta(t *testing.T) {
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: 8})

	if cont := p.ProcessQuantum(quantum(128, 0.5)); !cont {
		t.Error("idle quantum should keep continue signal true")
	}
	if got := drain(p); len(got) != 0 {
		t.Errorf("idle processor emitted %d results, want 0", len(got))
	}
	if _, ok := p.Last(); ok {
		t.Error("idle processor should have no last result")
	}
}

func TestNQuantaYieldNOrderedResults(t *testing.T) {
	const n = 20
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: n})
	p.Activate()

	for i := 0; i < n; i++ {
		if !p.ProcessQuantum(quantum(128, 0.25)) {
			t.Fatalf("quantum %d stopped the stream", i)
		}
	}

	got := drain(p)
	if len(got) != n {
		t.Fatalf("got %d results, want %d", len(got), n)
	}
	for i, res := range got {
		if res.Seq != uint64(i+1) {
			t.Errorf("result %d has seq %d, want %d", i, res.Seq, i+1)
		}
		if math.Abs(res.Value-0.25) > 1e-6 {
			t.Errorf("result %d value = %f, want 0.25", i, res.Value)
		}
	}
}

func TestInvalidBlockIsSkippedAndStreamContinues(t *testing.T) {
	const n = 10
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: n})
	p.Activate()

	bad := quantum(128, 0.1)
	bad[3] = float32(math.NaN())

	for i := 0; i < n; i++ {
		in := quantum(128, 0.1)
		if i == 4 {
			in = bad
		}
		if !p.ProcessQuantum(in) {
			t.Fatalf("quantum %d stopped the stream", i)
		}
	}

	got := drain(p)
	if len(got) != n-1 {
		t.Fatalf("got %d results, want %d", len(got), n-1)
	}
	if p.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", p.Skipped())
	}
	if !p.Active() {
		t.Error("processor should remain Active after a skipped block")
	}
	// Result numbering stays dense across the skip.
	for i, res := range got {
		if res.Seq != uint64(i+1) {
			t.Errorf("result %d has seq %d, want %d", i, res.Seq, i+1)
		}
	}
}

func TestEmptyQuantumIsInvalidInput(t *testing.T) {
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: 4})
	p.Activate()

	if !p.ProcessQuantum(nil) {
		t.Fatal("empty quantum should not stop the stream")
	}
	if p.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", p.Skipped())
	}
	if got := drain(p); len(got) != 0 {
		t.Errorf("empty quantum emitted %d results", len(got))
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	const depth = 4
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: depth})
	p.Activate()

	for i := 0; i < 10; i++ {
		p.ProcessQuantum(quantum(128, 0.5))
	}

	got := drain(p)
	if len(got) != depth {
		t.Fatalf("got %d queued results, want %d", len(got), depth)
	}
	// With drop-oldest, the surviving results are the newest ones.
	if got[0].Seq != 7 || got[depth-1].Seq != 10 {
		t.Errorf("surviving seqs %d..%d, want 7..10", got[0].Seq, got[depth-1].Seq)
	}
	if p.Dropped() != 6 {
		t.Errorf("Dropped() = %d, want 6", p.Dropped())
	}
}

func TestChannelSelection(t *testing.T) {
	const blockSize = 64
	p := newTestProcessor(t, blockSize, ProcessorConfig{
		Channels:       2,
		CaptureChannel: 1,
		QueueDepth:     2,
	})
	p.Activate()

	// Channel 0 carries silence, channel 1 a DC offset of 0.5.
	in := make([]float32, blockSize*2)
	for i := 0; i < blockSize; i++ {
		in[i*2+1] = 0.5
	}
	p.ProcessQuantum(in)

	got := drain(p)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if math.Abs(got[0].Value-0.5) > 1e-6 {
		t.Errorf("RMS over channel 1 = %f, want 0.5", got[0].Value)
	}
}

func TestSilenceGateSuppressesAnalysis(t *testing.T) {
	p := newTestProcessor(t, 128, ProcessorConfig{
		QueueDepth:    8,
		GateEnabled:   true,
		GateThreshold: 0.01,
	})
	p.Activate()

	p.ProcessQuantum(quantum(128, 0.001)) // under threshold
	p.ProcessQuantum(quantum(128, 0.5))   // over threshold

	got := drain(p)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if p.Gated() != 1 {
		t.Errorf("Gated() = %d, want 1", p.Gated())
	}
}

func TestLastResultSnapshot(t *testing.T) {
	p := newTestProcessor(t, 128, ProcessorConfig{QueueDepth: 2})
	p.Activate()

	p.ProcessQuantum(quantum(128, 0.25))
	p.ProcessQuantum(quantum(128, 0.75))

	last, ok := p.Last()
	if !ok {
		t.Fatal("expected a last result")
	}
	if last.Seq != 2 {
		t.Errorf("last Seq = %d, want 2", last.Seq)
	}
	if math.Abs(last.Value-0.75) > 1e-6 {
		t.Errorf("last Value = %f, want 0.75", last.Value)
	}
}

func TestProcessQuantumHotPathAllocs(t *testing.T) {
	p := newTestProcessor(t, 1024, ProcessorConfig{QueueDepth: 4})
	p.Activate()
	in := quantum(1024, 0.3)

	allocs := testing.AllocsPerRun(100, func() {
		if !p.ProcessQuantum(in) {
			t.Fatal("stream stopped")
		}
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in ProcessQuantum, got %.1f", allocs)
	}
}

func BenchmarkProcessQuantum(b *testing.B) {
	alg, err := dsp.New("rms", 1024, 44100)
	if err != nil {
		b.Fatal(err)
	}
	iv, err := dsp.NewInvoker(alg, 1024)
	if err != nil {
		b.Fatal(err)
	}
	p := NewProcessor(iv, ProcessorConfig{QueueDepth: 4})
	p.Activate()
	in := quantum(1024, 0.3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ProcessQuantum(in)
	}
}
