package marketdata

import (
    "context"
    "errors"
    "fmt"
    "testing"
)

func TestClassify_KeepsAdapterDecision(t *testing.T) {
    in := Errf("alphavantage", KindAuth, "api key missing")
    out := Classify("alphavantage", fmt.Errorf("fetch: %w", in))
    if out.Kind != KindAuth || out.Provider != "alphavantage" {
        t.Fatalf("unexpected: %+v", out)
    }
}

func TestClassify_DeadlineIsTimeout(t *testing.T) {
    out := Classify("yahoo", fmt.Errorf("get: %w", context.DeadlineExceeded))
    if out.Kind != KindTimeout {
        t.Fatalf("want timeout, got %s", out.Kind)
    }
}

func TestClassify_CancelIsNotTimeout(t *testing.T) {
    out := Classify("yahoo", fmt.Errorf("get: %w", context.Canceled))
    if out.Kind != KindUpstream {
        t.Fatalf("caller cancel misattributed as %s", out.Kind)
    }
}

func TestClassify_UnknownIsUpstream(t *testing.T) {
    out := Classify("yahoo", errors.New("status 502"))
    if out.Kind != KindUpstream || out.Provider != "yahoo" {
        t.Fatalf("unexpected: %+v", out)
    }
}

func TestTotalFailure_Message(t *testing.T) {
    err := &TotalFailure{Failures: []Failure{
        {Provider: "yahoo", Kind: KindTimeout, Message: "deadline exceeded"},
        {Provider: "alphavantage", Kind: KindAuth, Message: "api key missing"},
    }}
    var tf *TotalFailure
    if !errors.As(error(err), &tf) {
        t.Fatal("errors.As failed")
    }
    if len(tf.Failures) != 2 {
        t.Fatalf("want 2 failures, got %d", len(tf.Failures))
    }
}
