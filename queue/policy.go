package queue

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
)

const policyVersion = "2008-10-17"

type policyStatement struct {
	Sid       string                       `json:"Sid"`
	Effect    string                       `json:"Effect"`
	Principal map[string]string            `json:"Principal"`
	Action    string                       `json:"Action"`
	Resource  string                       `json:"Resource"`
	Condition map[string]map[string]string `json:"Condition"`
}

// statementID derives the deterministic statement id for a
// topic/queue pair, so re-running provisioning finds its own grant
// instead of stacking up duplicates.
func statementID(topicARN, queueARN string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(topicARN+queueARN)))
}

func sendMessageStatement(sid, topicARN, queueARN string) policyStatement {
	return policyStatement{
		Sid:       sid,
		Effect:    "Allow",
		Principal: map[string]string{"AWS": "*"},
		Action:    "SQS:SendMessage",
		Resource:  queueARN,
		Condition: map[string]map[string]string{
			"ForAllValues:ArnEquals": {"aws:SourceArn": topicARN},
		},
	}
}

// ensureStatement parses rawPolicy (which may be empty), appends the
// topic grant unless a statement with the derived id already exists,
// and reports whether anything changed.  Existing statements are
// carried through as raw JSON; this process only appends its own
// grant and never rewrites statements it does not own.
func ensureStatement(rawPolicy, topicARN, queueARN string) (string, bool, error) {
	doc := map[string]json.RawMessage{}
	if rawPolicy != "" {
		err := json.Unmarshal([]byte(rawPolicy), &doc)
		if err != nil {
			return "", false, err
		}
	}

	statements := []json.RawMessage{}
	if raw, ok := doc["Statement"]; ok {
		err := json.Unmarshal(raw, &statements)
		if err != nil {
			return "", false, err
		}
	}

	sid := statementID(topicARN, queueARN)
	for _, raw := range statements {
		ident := struct {
			Sid string `json:"Sid"`
		}{}
		err := json.Unmarshal(raw, &ident)
		if err != nil {
			return "", false, err
		}
		if ident.Sid == sid {
			return rawPolicy, false, nil
		}
	}

	stBytes, err := json.Marshal(sendMessageStatement(sid, topicARN, queueARN))
	if err != nil {
		return "", false, err
	}
	statements = append(statements, json.RawMessage(stBytes))

	stmtsBytes, err := json.Marshal(statements)
	if err != nil {
		return "", false, err
	}
	doc["Statement"] = json.RawMessage(stmtsBytes)

	if _, ok := doc["Version"]; !ok {
		doc["Version"] = json.RawMessage(fmt.Sprintf("%q", policyVersion))
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", false, err
	}

	return string(b), true, nil
}
