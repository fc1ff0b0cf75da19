package dsp

import (
	"errors"
	"math"
	"testing"
)

func TestNewInvokerBlockSizeMismatch(t *testing.T) {
	alg := newRMS(128)
	if _, err := NewInvoker(alg, 256); !errors.Is(err, ErrBlockSizeMismatch) {
		t.Fatalf("expected ErrBlockSizeMismatch, got %v", err)
	}
}

func TestInvokeSilenceIsZeroRMS(t *testing.T) {
	iv, err := NewInvoker(newRMS(128), 128)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(128)
	frame.Load(make([]float64, 128))

	res, err := iv.Invoke(frame)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Value != 0 {
		t.Errorf("RMS of silence = %f, want 0", res.Value)
	}
	if res.Seq != 1 {
		t.Errorf("Seq = %d, want 1", res.Seq)
	}
	if res.Algorithm != "rms" {
		t.Errorf("Algorithm = %q, want rms", res.Algorithm)
	}
}

func TestInvokeKnownRMS(t *testing.T) {
	iv, err := NewInvoker(newRMS(4), 4)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(4)
	frame.Load([]float64{0.5, -0.5, 0.5, -0.5})

	res, err := iv.Invoke(frame)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Value-0.5) > 1e-12 {
		t.Errorf("RMS = %f, want 0.5", res.Value)
	}
}

func TestInvokeRejectsEmptyFrame(t *testing.T) {
	iv, err := NewInvoker(newRMS(128), 128)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(128)

	if _, err := iv.Invoke(frame); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unloaded frame, got %v", err)
	}
	if _, err := iv.Invoke(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil frame, got %v", err)
	}
}

func TestInvokeRejectsNonFiniteSamples(t *testing.T) {
	iv, err := NewInvoker(newRMS(4), 4)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(4)
	frame.Load([]float64{0.1, math.NaN(), 0.1, 0.1})

	if _, err := iv.Invoke(frame); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for NaN sample, got %v", err)
	}

	// Sequence numbers stay dense: a rejected block does not consume one.
	frame.Load([]float64{0.1, 0.1, 0.1, 0.1})
	res, err := iv.Invoke(frame)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seq != 1 {
		t.Errorf("Seq after one rejected block = %d, want 1", res.Seq)
	}
}

func TestPeakAlgorithm(t *testing.T) {
	iv, err := NewInvoker(newPeak(4), 4)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(4)
	frame.Load([]float64{0.2, -0.9, 0.3, 0.1})

	res, err := iv.Invoke(frame)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Value-0.9) > 1e-12 {
		t.Errorf("peak = %f, want 0.9", res.Value)
	}
}

func TestFrameBufferLoadChannel(t *testing.T) {
	frame := NewFrameBuffer(4)
	// Two interleaved channels: L=0.1.. R=0.5..
	raw := []float32{0.1, 0.5, 0.2, 0.6, 0.3, 0.7, 0.4, 0.8}

	frame.LoadChannel(raw, 1, 2)
	want := []float64{0.5, 0.6, 0.7, 0.8}
	for i, s := range frame.Samples() {
		if math.Abs(s-want[i]) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, s, want[i])
		}
	}

	// Short raw buffer zero-fills the tail.
	frame.LoadChannel(raw[:4], 0, 2)
	got := frame.Samples()
	if got[2] != 0 || got[3] != 0 {
		t.Errorf("expected zero-filled tail, got %v", got)
	}
}

func TestInvokeHotPathAllocs(t *testing.T) {
	iv, err := NewInvoker(newRMS(1024), 1024)
	if err != nil {
		t.Fatal(err)
	}
	frame := NewFrameBuffer(1024)
	raw := make([]float32, 1024)
	for i := range raw {
		raw[i] = float32(i%100) / 100
	}

	allocs := testing.AllocsPerRun(100, func() {
		frame.LoadChannel(raw, 0, 1)
		if _, err := iv.Invoke(frame); err != nil {
			t.Fatal(err)
		}
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in invoke hot path, got %.1f", allocs)
	}
}

func TestNewByName(t *testing.T) {
	for _, name := range []string{"rms", "peak", "centroid", "bands"} {
		alg, err := New(name, 128, 44100)
		if err != nil {
			t.Errorf("New(%q): %v", name, err)
			continue
		}
		if alg.Name() != name {
			t.Errorf("Name() = %q, want %q", alg.Name(), name)
		}
		if alg.BlockSize() != 128 {
			t.Errorf("BlockSize() = %d, want 128", alg.BlockSize())
		}
	}
	if _, err := New("nope", 128, 44100); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}
