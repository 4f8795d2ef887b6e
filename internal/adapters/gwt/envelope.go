package gwt

import (
	"strings"
	"text/template"
)

// Call names one logical remote procedure.
type Call string

const (
	CallLogin        Call = "login"
	CallInitProject  Call = "initProject"
	CallLookupID     Call = "lookupId"
	CallListChildren Call = "listChildren"
)

// Service endpoints, relative to the module base.
const (
	serviceMyPlanning     = "MyPlanningClientServiceProxy"
	serviceWebClient      = "WebClientServiceProxy"
	serviceDirectPlanning = "DirectPlanningServiceProxy"
)

// envelopeArgs are the values interpolated into an envelope. Only the fields a
// template references are used.
type envelopeArgs struct {
	ModuleBase string
	Key        string
	CasUID     string
	FolderID   int
	Depth      int
	TreeLabel  string
}

type envelope struct {
	service string
	method  string
	tmpl    *template.Template
}

var envelopeFuncs = template.FuncMap{"gwt": escapeString}

func mustEnvelope(call Call, service, method, text string) envelope {
	return envelope{
		service: service,
		method:  method,
		tmpl:    template.Must(template.New(string(call)).Funcs(envelopeFuncs).Parse(text)),
	}
}

// Payload layout: version|flags|string count|string table|type refs|arguments.
// The session key is always the first argument.
var envelopes = map[Call]envelope{
	CallLogin: mustEnvelope(CallLogin, serviceMyPlanning, "method1login",
		`7|0|8|{{gwt .ModuleBase}}|217140C31DF67EF6BA02D106930F5725|`+
			`com.adesoft.gwt.directplan.client.rpc.MyPlanningClientServiceProxy|method1login|J|`+
			`com.adesoft.gwt.core.client.rpc.data.LoginRequest/3705388826|`+
			`com.adesoft.gwt.directplan.client.rpc.data.DirectLoginRequest/635437471||`+
			`1|2|3|4|2|5|6|{{.Key}}|7|0|0|0|1|1|8|8|-1|0|0|`),

	CallInitProject: mustEnvelope(CallInitProject, serviceWebClient, "method6loadProject",
		`7|0|7|{{gwt .ModuleBase}}|34BFB581389200AE2C2012C5A7E57F95|`+
			`com.adesoft.gwt.core.client.rpc.WebClientServiceProxy|method6loadProject|J|I|Z|`+
			`1|2|3|4|3|5|6|7|{{.Key}}|1|0|`),

	CallLookupID: mustEnvelope(CallLookupID, serviceDirectPlanning, "method7getResourceIds",
		`7|0|13|{{gwt .ModuleBase}}|067818807965393FC5DCF6AECC2CA8EC|`+
			`com.adesoft.gwt.directplan.client.rpc.DirectPlanningServiceProxy|method7getResourceIds|J|`+
			`java.util.List|java.util.Map|Z|java.util.ArrayList/4159755760|java.util.HashMap/1797211028|`+
			`com.adesoft.gwt.directplan.client.rpc.ResourceFieldCriteria/1324434193|java.lang.String/2004016611|`+
			`{{gwt .CasUID}}|1|2|3|4|4|5|6|7|8|{{.Key}}|9|0|10|1|11|17|9|1|12|13|0|`),

	CallListChildren: mustEnvelope(CallListChildren, serviceDirectPlanning, "method4getChildren",
		`7|0|20|{{gwt .ModuleBase}}|067818807965393FC5DCF6AECC2CA8EC|`+
			`com.adesoft.gwt.directplan.client.rpc.DirectPlanningServiceProxy|method4getChildren|J|`+
			`java.lang.String/2004016611|com.adesoft.gwt.directplan.client.ui.tree.TreeResourceConfig/2234901663|`+
			`{"{{.FolderID}}""true""{{.Depth}}""-1""5""5""0""false"[2]`+
			`{"ColorField""COLOR""LabelColor""255,255,255""false""false"`+
			`{"StringField""NAME""LabelName""{{gwt .TreeLabel}}""false""false""{{gwt .TreeLabel}}""classroom""3""0"[0][0]|`+
			`[I/2970817851|java.util.LinkedHashMap/3008245022|COLOR|`+
			`com.adesoft.gwt.core.client.rpc.config.OutputField/870745015|LabelColor||`+
			`com.adesoft.gwt.core.client.rpc.config.FieldType/1797283245|NAME|LabelName|`+
			`java.util.ArrayList/4159755760|com.extjs.gxt.ui.client.data.SortInfo/1143517771|`+
			`com.extjs.gxt.ui.client.Style$SortDir/3873584144|`+
			`1|2|3|4|3|5|6|7|{{.Key}}|8|7|0|9|2|-1|-1|10|0|2|6|11|12|0|13|11|14|15|11|0|0|6|16|12|0|`+
			`17|16|14|15|4|0|0|18|0|18|0|19|20|1|16|18|0|`),
}

// render builds the request body for call.
func render(call Call, args envelopeArgs) (envelope, string, error) {
	env, ok := envelopes[call]
	if !ok {
		return envelope{}, "", &unknownCallError{call: call}
	}
	var b strings.Builder
	if err := env.tmpl.Execute(&b, args); err != nil {
		return envelope{}, "", err
	}
	return env, b.String(), nil
}

type unknownCallError struct{ call Call }

func (e *unknownCallError) Error() string { return "unknown rpc call " + string(e.call) }

// escapeString applies GWT-RPC string escaping so a value cannot break the pipe-delimited framing.
func escapeString(s string) string {
	if !strings.ContainsAny(s, "\\|\x00") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, "|", `\!`, "\x00", `\0`)
	return r.Replace(s)
}
