package bot

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"petspa-text-bot/internal/cache"
	"petspa-text-bot/internal/config"
	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/flow"
	"petspa-text-bot/internal/logger"
	"petspa-text-bot/internal/script"
	"petspa-text-bot/internal/supabase"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// injection keys shared with app wiring
const (
	KeyConfig   = "cnf"
	KeyCache    = "cache"
	KeyScript   = "script"
	KeySupabase = "supabase"
	KeyGemini   = "gemini"
)

// a session processes one message at a time; concurrent senders get a 409
var busySessions sync.Map

// what the handlers need from the language model accessor
type aiProvider interface {
	Answer(c context.Context, history []database.Turn, message string) (string, error)
	MascotPhrase(c context.Context, userName string, petNames []string) (string, error)
}

type (
	messageRequest struct {
		Text string `json:"text" binding:"required"`
	}

	chatResponse struct {
		SessionID uuid.UUID      `json:"session_id"`
		Node      flow.NodeID    `json:"node"`
		Messages  []flow.Message `json:"messages"`
		Capture   string         `json:"capture,omitempty"`
		Freeform  bool           `json:"freeform,omitempty"`
		Navigate  database.Route `json:"navigate,omitempty"`
		SignedIn  bool           `json:"signed_in"`
	}

	newPetRequest struct {
		UserID       uuid.UUID `json:"user_id" binding:"required"`
		Name         string    `json:"name" binding:"required"`
		Breed        string    `json:"breed"`
		SizeCategory string    `json:"size_category"`
		PhotoURL     string    `json:"photo_url"`
	}

	statusRequest struct {
		Status string `json:"status" binding:"required"`
	}
)

func Routes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.POST("/chat", newChat)
	v1.GET("/chat/:session_id", getChat)
	v1.POST("/chat/:session_id/message", postMessage)
	v1.DELETE("/chat/:session_id", deleteChat)

	v1.GET("/services", listServices)
	v1.GET("/products", listProducts)
	v1.GET("/pets", listPets)
	v1.POST("/pets", createPet)
	v1.GET("/appointments", listAppointments)
	v1.PATCH("/appointments/:id", updateAppointment)
	v1.GET("/mascot", mascotPhrase)
}

func newEngine(c *gin.Context, st *flow.State) *flow.Engine {
	cnf := c.MustGet(KeyConfig).(*config.Conf)
	sc := c.MustGet(KeyScript).(*script.Script)
	sb := c.MustGet(KeySupabase).(*supabase.Client)
	ai := c.MustGet(KeyGemini).(aiProvider)

	return flow.New(sc, sb, sb, ai, st, cnf.HistoryDepth)
}

func respond(c *gin.Context, sessionID uuid.UUID, st *flow.State, since int, navigate database.Route) {
	resp := chatResponse{
		SessionID: sessionID,
		Node:      st.Node,
		Messages:  st.Transcript[since:],
		Freeform:  st.Freeform,
		Navigate:  navigate,
		SignedIn:  st.Auth != nil,
	}
	if st.Capture != nil {
		resp.Capture = string(st.Capture.Kind)
	}
	c.JSON(http.StatusOK, resp)
}

// newChat opens a session: greet, render the start menu, persist.
func newChat(c *gin.Context) {
	sc := c.MustGet(KeyScript).(*script.Script)
	mem := c.MustGet(KeyCache).(*bigcache.BigCache)

	sessionID := uuid.New()
	st := flow.NewState()
	st.PushBot(sc.GreetingMessage, nil)

	eng := newEngine(c, st)
	if err := eng.Enter(c, flow.NodeStart); err != nil {
		logger.Warning("Error while opening chat session:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open session"})
		return
	}

	if err := cache.SaveState(mem, sessionID, st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	respond(c, sessionID, st, 0, "")
}

func getChat(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	mem := c.MustGet(KeyCache).(*bigcache.BigCache)
	st, ok := cache.GetState(mem, sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	respond(c, sessionID, st, 0, "")
}

// postMessage runs one dialogue turn. Dispatch order mirrors what the user
// is looking at: an offered option may match first (even while a capture is
// pending), then a pending capture takes the text verbatim, then the AI
// picks it up in freeform mode, otherwise the choices are repeated.
func postMessage(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	if _, loaded := busySessions.LoadOrStore(sessionID, struct{}{}); loaded {
		c.JSON(http.StatusConflict, gin.H{"error": "session is busy"})
		return
	}
	defer busySessions.Delete(sessionID)

	mem := c.MustGet(KeyCache).(*bigcache.BigCache)
	st, ok := cache.GetState(mem, sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	since := len(st.Transcript)

	var navigate database.Route
	eng := newEngine(c, st)
	eng.OnNavigate = func(route database.Route) { navigate = route }

	// an offered option always wins: capture nodes keep their escape
	// buttons selectable, typed input is only what matches no button
	if opt := st.MatchOption(req.Text); opt != nil {
		err = eng.SelectOption(c, *opt)
	} else if st.Capture != nil {
		err = eng.SubmitInput(c, req.Text)
	} else if st.Freeform {
		err = eng.SubmitFreeText(c, req.Text)
	} else {
		eng.RejectUnknown()
	}
	if err != nil {
		logger.Warning("Error while processing message for session", sessionID, ":", err)
	}

	if err := cache.SaveState(mem, sessionID, st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	respond(c, sessionID, st, since, navigate)
}

func deleteChat(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	mem := c.MustGet(KeyCache).(*bigcache.BigCache)
	if err := cache.DeleteState(mem, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func listServices(c *gin.Context) {
	sb := c.MustGet(KeySupabase).(*supabase.Client)

	services, err := sb.Services(c)
	if err != nil {
		logger.Warning("Error while listing services:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalogue unavailable"})
		return
	}
	c.JSON(http.StatusOK, services)
}

func listProducts(c *gin.Context) {
	sb := c.MustGet(KeySupabase).(*supabase.Client)

	products, err := sb.Products(c)
	if err != nil {
		logger.Warning("Error while listing products:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalogue unavailable"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// bearerToken pulls the caller's access token; the data layer enforces row
// access, the handlers only pass it through.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func listPets(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
		return
	}

	sb := c.MustGet(KeySupabase).(*supabase.Client)
	pets, err := sb.MyPets(c, token, userID)
	if err != nil {
		logger.Warning("Error while listing pets:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "pets unavailable"})
		return
	}
	c.JSON(http.StatusOK, pets)
}

func createPet(c *gin.Context) {
	var req newPetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and user_id are required"})
		return
	}
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
		return
	}

	sb := c.MustGet(KeySupabase).(*supabase.Client)
	err := sb.CreatePet(c, token, database.NewPet{
		OwnerID:      req.UserID,
		Name:         req.Name,
		Breed:        req.Breed,
		SizeCategory: req.SizeCategory,
		PhotoURL:     req.PhotoURL,
	})
	if err != nil {
		logger.Warning("Error while creating pet:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create pet"})
		return
	}
	c.Status(http.StatusCreated)
}

func listAppointments(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
		return
	}

	sb := c.MustGet(KeySupabase).(*supabase.Client)
	appts, err := sb.Appointments(c, token)
	if err != nil {
		logger.Warning("Error while listing appointments:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "appointments unavailable"})
		return
	}
	c.JSON(http.StatusOK, appts)
}

var validStatuses = map[string]bool{
	database.AppointmentPending:    true,
	database.AppointmentConfirmed:  true,
	database.AppointmentInProgress: true,
	database.AppointmentCompleted:  true,
}

func updateAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
		return
	}

	sb := c.MustGet(KeySupabase).(*supabase.Client)
	if err := sb.UpdateAppointmentStatus(c, token, id, req.Status); err != nil {
		logger.Warning("Error while updating appointment", id, ":", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to update appointment"})
		return
	}
	c.Status(http.StatusNoContent)
}

// mascotPhrase returns one generated greeting for the landing screen; the
// scripted fallback keeps the screen alive when the model is down.
func mascotPhrase(c *gin.Context) {
	sc := c.MustGet(KeyScript).(*script.Script)
	ai := c.MustGet(KeyGemini).(aiProvider)

	var petNames []string
	if raw := strings.TrimSpace(c.Query("pets")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				petNames = append(petNames, name)
			}
		}
	}

	phrase, err := ai.MascotPhrase(c, strings.TrimSpace(c.Query("name")), petNames)
	if err != nil {
		logger.Warning("Error while generating mascot phrase:", err)
		phrase = sc.AI.MascotFallback
	}
	c.JSON(http.StatusOK, gin.H{"phrase": phrase})
}
