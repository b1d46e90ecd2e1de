package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/domain/entity"
)

const (
	clientKind  = entity.PartyClient
	driverKind  = entity.PartyDriver
	carrierKind = entity.PartyCarrier
)

// registerPartyRoutes mounts the CRUD routes of one party kind on g
func (h *Handlers) registerPartyRoutes(g *gin.RouterGroup, kind entity.PartyKind) {
	g.GET("", h.listParties(kind))
	g.POST("", h.createParty(kind))
	g.GET("/:id", h.getParty(kind))
	g.PUT("/:id", h.updateParty(kind))
	g.DELETE("/:id", h.deleteParty(kind))
}

func (h *Handlers) listParties(kind entity.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parties, err := h.services.Parties.List(c.Request.Context(), principal(c), kind)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if parties == nil {
			parties = []*entity.Party{}
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: parties})
	}
}

func (h *Handlers) createParty(kind entity.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.PartyInput
		if !h.bindJSON(c, &in) {
			return
		}
		party, err := h.services.Parties.Create(c.Request.Context(), principal(c), kind, in)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, Response{Success: true, Data: party})
	}
}

func (h *Handlers) getParty(kind entity.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		party, err := h.services.Parties.Get(c.Request.Context(), principal(c), kind, c.Param("id"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: party})
	}
}

func (h *Handlers) updateParty(kind entity.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.PartyInput
		if !h.bindJSON(c, &in) {
			return
		}
		party, err := h.services.Parties.Update(c.Request.Context(), principal(c), kind, c.Param("id"), in)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: party})
	}
}

func (h *Handlers) deleteParty(kind entity.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.services.Parties.Delete(c.Request.Context(), principal(c), kind, c.Param("id")); err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true})
	}
}
