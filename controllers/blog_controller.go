package controllers

import (
	"errors"
	"net/http"

	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/seo"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlogController struct {
	CMS  *content.Client
	Site seo.Site
	Log  *zap.Logger
}

func NewBlogController(cms *content.Client, site seo.Site, log *zap.Logger) *BlogController {
	return &BlogController{CMS: cms, Site: site, Log: log}
}

// ListPosts answers with an empty page when the CMS is down or not
// configured.
func (bc *BlogController) ListPosts(c *gin.Context) {
	page, pageSize := utils.Page(c, 12)
	empty := StandardResponse{
		Success:    true,
		Data:       []content.Post{},
		Pagination: NewPagination(page, pageSize, 0),
	}
	if !bc.CMS.Enabled() {
		c.JSON(http.StatusOK, empty)
		return
	}

	articles, pg, err := bc.CMS.ListArticles(c.Request.Context(), content.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
	})
	if err != nil {
		bc.Log.Warn("blog list unavailable", zap.Error(err))
		c.JSON(http.StatusOK, empty)
		return
	}

	posts := make([]content.Post, 0, len(articles))
	for i := range articles {
		p, err := articles[i].Render(false)
		if err != nil {
			bc.Log.Warn("skipping unrenderable article", zap.String("slug", articles[i].Slug), zap.Error(err))
			continue
		}
		posts = append(posts, p)
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       posts,
		Pagination: &PaginationMeta{CurrentPage: pg.Page, PageSize: pg.PageSize, TotalItems: int64(pg.Total), TotalPages: pg.PageCount},
	})
}

func (bc *BlogController) GetPost(c *gin.Context) {
	if !bc.CMS.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	article, err := bc.CMS.GetArticle(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		bc.Log.Warn("blog post unavailable", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	post, err := article.Render(true)
	if err != nil {
		internalError(c, bc.Log, "GetPost.render", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"post": post, "meta": seo.BlogMeta(bc.Site, post)},
	})
}
