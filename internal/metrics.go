package montop

// Response codes returned by the metrics services. Anything other than
// CodeSuccess is an application error and carries a message in Msg.
const (
	CodeSuccess         = 0
	CodeFail            = 1
	CodeMonitorNotFound = 2
	CodeMetricsNotFound = 3
)

// Response is the envelope every metrics service answers with
type Response struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg,omitempty"`
	Data *MetricsData `json:"data,omitempty"`
}

// MetricsData holds one collected metric-set of a monitor
type MetricsData struct {
	ID        int64      `json:"id"`
	App       string     `json:"app"`
	Metrics   string     `json:"metrics"`
	Time      int64      `json:"time"`
	Fields    []Field    `json:"fields"`
	ValueRows []ValueRow `json:"valueRows"`
}

// Field describes one column of a metric-set
type Field struct {
	Name  string `json:"name"`
	Type  int    `json:"type"`
	Unit  string `json:"unit,omitempty"`
	Label bool   `json:"label"`
}

// ValueRow is one row of a metric-set. Values are ordered like Fields.
type ValueRow struct {
	Labels map[string]string `json:"labels,omitempty"`
	Values []Value           `json:"values"`
}

// Value is a single rendered field value
type Value struct {
	Origin string `json:"origin"`
}

// Field types
const (
	FieldTypeNumber = 0
	FieldTypeString = 1
)

// Monitor is the descriptor of a monitored resource
type Monitor struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	App     string   `json:"app"`
	Host    string   `json:"host"`
	Port    int      `json:"port,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
}

// Succeeded reports whether the response carries usable data
func (r *Response) Succeeded() bool {
	return r != nil && r.Code == CodeSuccess && r.Data != nil
}

// Origins flattens the row values into plain strings
func (r ValueRow) Origins() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Origin
	}
	return out
}

func successResponse(data *MetricsData) *Response {
	return &Response{Code: CodeSuccess, Data: data}
}

func failResponse(code int, msg string) *Response {
	return &Response{Code: code, Msg: msg}
}
