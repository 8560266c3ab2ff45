package stack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/alarm"
)

const topicLogicalID = "AlarmTopic"

type template struct {
	AWSTemplateFormatVersion string              `json:"AWSTemplateFormatVersion"`
	Description              string              `json:"Description"`
	Resources                map[string]resource `json:"Resources"`
	Outputs                  map[string]output   `json:"Outputs"`
}

type resource struct {
	Type       string `json:"Type"`
	Properties any    `json:"Properties"`
}

type output struct {
	Value any `json:"Value"`
}

type ref struct {
	Ref string `json:"Ref"`
}

type topicProperties struct {
	Subscription []subscription `json:"Subscription,omitempty"`
}

type subscription struct {
	Endpoint string `json:"Endpoint"`
	Protocol string `json:"Protocol"`
}

type alarmProperties struct {
	AlarmName          string      `json:"AlarmName"`
	AlarmDescription   string      `json:"AlarmDescription,omitempty"`
	Namespace          string      `json:"Namespace"`
	MetricName         string      `json:"MetricName"`
	Dimensions         []dimension `json:"Dimensions"`
	Statistic          string      `json:"Statistic"`
	Period             int32       `json:"Period"`
	EvaluationPeriods  int32       `json:"EvaluationPeriods"`
	DatapointsToAlarm  int32       `json:"DatapointsToAlarm,omitempty"`
	Threshold          json.Number `json:"Threshold"`
	ComparisonOperator string      `json:"ComparisonOperator"`
	TreatMissingData   string      `json:"TreatMissingData,omitempty"`
	AlarmActions       []ref       `json:"AlarmActions"`
	OKActions          []ref       `json:"OKActions"`
}

type dimension struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Template renders the stack as a CloudFormation JSON template.
// Identical stacks render to identical bytes.
func (s *Stack) Template() ([]byte, error) {
	resources := make(map[string]resource, len(s.Alarms)+1)
	resources[topicLogicalID] = resource{
		Type:       "AWS::SNS::Topic",
		Properties: topicProperties{Subscription: s.subscriptions()},
	}

	actions := []ref{{Ref: topicLogicalID}}
	for _, a := range s.Alarms {
		id := uniqueLogicalID(resources, a.Name)
		resources[id] = resource{
			Type:       "AWS::CloudWatch::Alarm",
			Properties: newAlarmProperties(a, actions),
		}
	}

	tmpl := template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              fmt.Sprintf("CloudWatch alarms for alerting group %s", s.Group),
		Resources:                resources,
		Outputs: map[string]output{
			"AlarmTopicArn": {Value: ref{Ref: topicLogicalID}},
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tmpl); err != nil {
		return nil, fmt.Errorf("cannot encode template for stack %q: %w", s.Name, err)
	}

	return buf.Bytes(), nil
}

func (s *Stack) subscriptions() []subscription {
	subs := make([]subscription, 0, len(s.Targets))
	for _, t := range s.Targets {
		switch {
		case t.Email != "":
			subs = append(subs, subscription{Endpoint: t.Email, Protocol: "email"})
		case t.URL != "":
			subs = append(subs, subscription{Endpoint: t.URL, Protocol: "https"})
		}
	}
	return subs
}

func newAlarmProperties(a alarm.Definition, actions []ref) alarmProperties {
	dims := make([]dimension, len(a.Dimensions))
	for i, d := range a.Dimensions {
		dims[i] = dimension{Name: d.Name, Value: d.Value}
	}

	return alarmProperties{
		AlarmName:          a.Name,
		AlarmDescription:   a.Description,
		Namespace:          a.Namespace,
		MetricName:         a.MetricName,
		Dimensions:         dims,
		Statistic:          string(a.Statistic),
		Period:             a.Period,
		EvaluationPeriods:  a.EvaluationPeriods,
		DatapointsToAlarm:  a.DatapointsToAlarm,
		Threshold:          json.Number(a.Threshold.String()),
		ComparisonOperator: string(a.ComparisonOperator),
		TreatMissingData:   a.TreatMissingData,
		AlarmActions:       actions,
		OKActions:          actions,
	}
}

// LogicalID strips an alarm name down to the alphanumerics CloudFormation
// accepts as a logical resource ID.
func LogicalID(alarmName string) string {
	id := []rune("Alarm")
	for _, r := range alarmName {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			id = append(id, r)
		}
	}
	return string(id)
}

// Names differing only in punctuation collapse to the same ID; later ones
// get a numeric suffix in alarm order.
func uniqueLogicalID(taken map[string]resource, alarmName string) string {
	base := LogicalID(alarmName)
	id := base
	for n := 2; ; n++ {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = base + strconv.Itoa(n)
	}
}
