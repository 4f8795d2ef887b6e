package testutil

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Paths served by FakeADE.
const (
	FakeEntryPath      = "/direct/myplanning.jsp"
	FakeModuleBasePath = "/direct/gwtdirectplanning/"
	FakeLoginPath      = "/cas/login"
	FakeFeedPath       = "/jsp/custom/modules/plannings/anonymous_cal.jsp"

	FakePermutation = "0123456789ABCDEF0123456789ABCDEF"
	fakeTicket      = "ST-1-fake"
	fakeExecution   = "e1s1"
	fakeSubmitLabel = "SE CONNECTER"
)

var fakeFolderRe = regexp.MustCompile(`\{"(-?\d+)""`)

// FakeNode is a child record served by the fake tree listing.
type FakeNode struct {
	ID       int
	Name     string
	IsFolder bool
}

// RPCCall is one GWT call received by FakeADE.
type RPCCall struct {
	Service string
	Method  string
	Key     string
	// Folder is the queried folder id for getChildren calls.
	Folder int
}

// FakeADE emulates the CAS portal, the GWT endpoints and the calendar feed on one httptest server.
// Configure the exported fields before issuing requests.
type FakeADE struct {
	Server *httptest.Server

	Username string
	Password string

	// Tree maps a folder id to the children returned for it.
	Tree map[int][]FakeNode
	// EchoQueried makes tree listings include the queried folder itself.
	EchoQueried bool
	// UIDs maps CAS user ids to resource ids for getResourceIds.
	UIDs map[string]int
	// Feeds maps a resource id to the iCal body served for it.
	Feeds map[int]string

	// OmitFormField drops one of lt, execution or submit from the login page.
	OmitFormField string
	// RejectStatus, when non-zero, is the status returned for any credential POST.
	RejectStatus int
	// SkipEntryCookie stops the entry URL from setting a session cookie.
	SkipEntryCookie bool

	mu          sync.Mutex
	seq         int
	lastLT      string
	authed      map[string]bool
	loggedIn    bool
	loaded      bool
	calls       []RPCCall
	feedQueries []url.Values
}

// NewFakeADE starts a FakeADE with user "jdoe"/"secret". The server closes with the test.
func NewFakeADE(t TestingTB) *FakeADE {
	f := &FakeADE{
		Username: "jdoe",
		Password: "secret",
		Tree:     map[int][]FakeNode{},
		UIDs:     map[string]int{},
		Feeds:    map[int]string{},
		authed:   map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(FakeEntryPath, f.handleEntry)
	mux.HandleFunc(FakeLoginPath, f.handleLogin)
	mux.HandleFunc(FakeModuleBasePath, f.handleRPC)
	mux.HandleFunc(FakeFeedPath, f.handleFeed)
	f.Server = httptest.NewServer(mux)
	registerCleanup(t, f.Server.Close)
	return f
}

// Host is the host:port every fake endpoint is served on.
func (f *FakeADE) Host() string { return f.Server.Listener.Addr().String() }

// EntryURL is the protected page that starts the SSO exchange.
func (f *FakeADE) EntryURL() string { return f.Server.URL + FakeEntryPath }

// ModuleBase is the GWT module base URL.
func (f *FakeADE) ModuleBase() string { return f.Server.URL + FakeModuleBasePath }

// FeedURL is the calendar feed endpoint.
func (f *FakeADE) FeedURL() string { return f.Server.URL + FakeFeedPath }

// Calls returns the GWT calls received so far, in arrival order.
func (f *FakeADE) Calls() []RPCCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RPCCall(nil), f.calls...)
}

// Methods returns the method names of Calls.
func (f *FakeADE) Methods() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// FeedQueries returns the query strings of calendar feed requests.
func (f *FakeADE) FeedQueries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.feedQueries...)
}

func (f *FakeADE) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakeADE) handleEntry(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Query().Get("ticket") == fakeTicket {
		id := f.nextID("auth")
		f.authed[id] = true
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: id, Path: "/direct"})
		http.Redirect(w, r, FakeEntryPath, http.StatusFound)
		return
	}

	if c, err := r.Cookie("JSESSIONID"); err == nil && f.authed[c.Value] {
		_, _ = io.WriteString(w, "<html><body>planning</body></html>")
		return
	}

	if !f.SkipEntryCookie {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: f.nextID("anon"), Path: "/direct"})
	}
	service := f.Server.URL + FakeEntryPath
	http.Redirect(w, r, FakeLoginPath+"?service="+url.QueryEscape(service), http.StatusFound)
}

func (f *FakeADE) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	service := r.URL.Query().Get("service")
	if r.Method == http.MethodGet {
		http.SetCookie(w, &http.Cookie{Name: "CASSESSION", Value: f.nextID("cas"), Path: "/cas"})
		f.writeLoginForm(w, service)
		return
	}

	if f.RejectStatus != 0 {
		w.WriteHeader(f.RejectStatus)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok := r.PostForm.Get("username") == f.Username &&
		r.PostForm.Get("password") == f.Password &&
		r.PostForm.Get("lt") == f.lastLT &&
		r.PostForm.Get("execution") == fakeExecution &&
		r.PostForm.Get("_eventId") == "submit" &&
		r.PostForm.Get("submit") == fakeSubmitLabel
	if !ok {
		f.writeLoginForm(w, service)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "CASTGC", Value: "TGT-" + f.nextID("tgt"), Path: "/cas"})
	http.Redirect(w, r, service+"?ticket="+fakeTicket, http.StatusFound)
}

func (f *FakeADE) writeLoginForm(w http.ResponseWriter, service string) {
	f.lastLT = "LT-" + f.nextID("lt")
	action := FakeLoginPath + "?service=" + url.QueryEscape(service) + "&locale=fr"

	var b strings.Builder
	b.WriteString("<html><body>\n")
	fmt.Fprintf(&b, `<form id="fm1" class="fm-v clearfix" action="%s" method="post">`+"\n", html.EscapeString(action))
	b.WriteString(`<input id="username" name="username" type="text" value="" />` + "\n")
	b.WriteString(`<input id="password" name="password" type="password" value="" />` + "\n")
	if f.OmitFormField != "lt" {
		fmt.Fprintf(&b, `<input type="hidden" name="lt" value="%s" />`+"\n", f.lastLT)
	}
	if f.OmitFormField != "execution" {
		fmt.Fprintf(&b, `<input type="hidden" name="execution" value="%s" />`+"\n", fakeExecution)
	}
	b.WriteString(`<input type="hidden" name="_eventId" value="submit" />` + "\n")
	if f.OmitFormField != "submit" {
		fmt.Fprintf(&b, `<input class="btn-submit" name="submit" accesskey="l" value="%s" tabindex="4" type="submit" />`+"\n", fakeSubmitLabel)
	}
	b.WriteString("</form></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

func (f *FakeADE) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "text/x-gwt-rpc") ||
		r.Header.Get("X-GWT-Module-Base") != f.ModuleBase() ||
		r.Header.Get("X-GWT-Permutation") != FakePermutation {
		http.Error(w, "bad gwt headers", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := r.Cookie("JSESSIONID")
	if err != nil || !f.authed[c.Value] {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	call, strs, err := decodeGWT(string(body))
	if err != nil || strs[0] != f.ModuleBase() {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	call.Service = strings.TrimPrefix(r.URL.Path, FakeModuleBasePath)
	if m := fakeFolderRe.FindStringSubmatch(string(body)); m != nil {
		call.Folder, _ = strconv.Atoi(m[1])
	}
	f.calls = append(f.calls, call)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch call.Method {
	case "method1login":
		f.loggedIn = true
		_, _ = io.WriteString(w, `//OK[1,[],0,7]`)
	case "method6loadProject":
		if !f.loggedIn {
			writeGWTException(w, "not logged in")
			return
		}
		f.loaded = true
		_, _ = io.WriteString(w, `//OK[1,[],0,7]`)
	case "method7getResourceIds":
		if !f.loaded {
			writeGWTException(w, "project not loaded")
			return
		}
		id, ok := f.UIDs[strs[len(strs)-1]]
		if !ok {
			_, _ = io.WriteString(w, `//OK[[],0,7]`)
			return
		}
		fmt.Fprintf(w, `//OK[%d,1,["java.lang.Integer/3438268394"],0,7]`, id)
	case "method4getChildren":
		if !f.loaded {
			writeGWTException(w, "project not loaded")
			return
		}
		_, _ = io.WriteString(w, f.childrenBody(call.Folder))
	default:
		writeGWTException(w, "unknown method "+call.Method)
	}
}

func (f *FakeADE) childrenBody(folder int) string {
	nodes := f.Tree[folder]
	if f.EchoQueried {
		nodes = append([]FakeNode{{ID: folder, Name: "Self", IsFolder: true}}, nodes...)
	}
	records := make([]string, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, fmt.Sprintf(
			`"{\"%d\"\"%t\"\"1\"\"-1\"\"StringField\"\"NAME\"\"LabelName\"\"%s\"\"false\"\"false\"}"`,
			n.ID, n.IsFolder, n.Name))
	}
	return `//OK[0,` + strconv.Itoa(len(nodes)) + `,[` + strings.Join(records, ",") + `],0,7]`
}

func writeGWTException(w http.ResponseWriter, msg string) {
	fmt.Fprintf(w, `//EX[2,1,["com.google.gwt.user.client.rpc.SerializationException/2836333220","%s"],0,7]`, msg)
}

// decodeGWT reads the method name and session key out of a GWT-RPC request payload.
// Layout: version|flags|n|s1..sn|1|2|3|4|paramCount|paramTypes...|firstArg|...
func decodeGWT(body string) (RPCCall, []string, error) {
	parts := strings.Split(body, "|")
	if len(parts) < 4 || parts[0] != "7" {
		return RPCCall{}, nil, fmt.Errorf("bad header")
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || len(parts) < 3+n+5 {
		return RPCCall{}, nil, fmt.Errorf("bad string table")
	}
	strs := parts[3 : 3+n]
	data := parts[3+n:]
	params, err := strconv.Atoi(data[4])
	if err != nil || len(data) <= 5+params {
		return RPCCall{}, nil, fmt.Errorf("bad params")
	}
	return RPCCall{Method: strs[3], Key: data[5+params]}, strs, nil
}

func (f *FakeADE) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.feedQueries = append(f.feedQueries, q)
	f.mu.Unlock()

	if q.Get("calType") != "ical" || q.Get("firstDate") == "" || q.Get("lastDate") == "" {
		http.Error(w, "bad feed query", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(q.Get("resources"))
	if err != nil {
		http.Error(w, "bad resources", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	body, ok := f.Feeds[id]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = io.WriteString(w, body)
}
