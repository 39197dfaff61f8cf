package queue

import (
	"strings"
	"testing"
)

func TestStatementIDIsDeterministic(t *testing.T) {
	a := statementID("topic-arn", "queue-arn")
	b := statementID("topic-arn", "queue-arn")
	if a != b {
		t.Errorf("statement id not stable: %q != %q", a, b)
	}

	c := statementID("topic-arn", "other-queue-arn")
	if a == c {
		t.Error("statement id did not vary with the queue arn")
	}
}

func TestEnsureStatementEmptyPolicy(t *testing.T) {
	policy, changed, err := ensureStatement("", "topic-arn", "queue-arn")
	if err != nil {
		t.Fatalf("ensure returned error: %v", err)
	}
	if !changed {
		t.Error("expected an empty policy to gain a statement")
	}
	if n := statementCount(t, policy); n != 1 {
		t.Errorf("statement count %v != 1", n)
	}
}

func TestEnsureStatementExisting(t *testing.T) {
	policy, _, err := ensureStatement("", "topic-arn", "queue-arn")
	if err != nil {
		t.Fatal(err)
	}

	again, changed, err := ensureStatement(policy, "topic-arn", "queue-arn")
	if err != nil {
		t.Fatalf("ensure returned error: %v", err)
	}
	if changed {
		t.Error("expected an existing statement to be left alone")
	}
	if again != policy {
		t.Error("policy was rewritten despite no change")
	}
}

func TestEnsureStatementAcceptsArrayConditions(t *testing.T) {
	existing := `{"Version":"2012-10-17","Statement":[{"Sid":"fanout","Effect":"Allow","Principal":{"AWS":"*"},"Action":"SQS:SendMessage","Resource":"queue-arn","Condition":{"ArnLike":{"aws:SourceArn":["arn:a","arn:b"]}}}]}`

	policy, changed, err := ensureStatement(existing, "topic-arn", "queue-arn")
	if err != nil {
		t.Fatalf("ensure returned error: %v", err)
	}
	if !changed {
		t.Error("expected the grant to be appended")
	}
	if n := statementCount(t, policy); n != 2 {
		t.Errorf("statement count %v != 2", n)
	}
	if !strings.Contains(policy, `["arn:a","arn:b"]`) {
		t.Errorf("array condition values were not preserved: %s", policy)
	}
}

func TestEnsureStatementPreservesForeignFields(t *testing.T) {
	existing := `{"Id":"queue-arn/policy","Version":"2012-10-17","Statement":[{"Sid":"deny-elsewhere","Effect":"Deny","NotPrincipal":{"AWS":"arn:aws:iam::123456789012:root"},"Action":["SQS:SendMessage","SQS:ReceiveMessage"],"NotResource":"other-arn"}]}`

	policy, changed, err := ensureStatement(existing, "topic-arn", "queue-arn")
	if err != nil {
		t.Fatalf("ensure returned error: %v", err)
	}
	if !changed {
		t.Error("expected the grant to be appended")
	}
	if n := statementCount(t, policy); n != 2 {
		t.Errorf("statement count %v != 2", n)
	}

	for _, fragment := range []string{
		`"NotResource":"other-arn"`,
		`"NotPrincipal":{"AWS":"arn:aws:iam::123456789012:root"}`,
		`["SQS:SendMessage","SQS:ReceiveMessage"]`,
		`"Id":"queue-arn/policy"`,
		`"Version":"2012-10-17"`,
	} {
		if !strings.Contains(policy, fragment) {
			t.Errorf("rewritten policy lost %s: %s", fragment, policy)
		}
	}
}
