package helper_util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
)

func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: limit", ztx_errors.ErrInvalidPagination)
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: offset", ztx_errors.ErrInvalidPagination)
	}
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: negative values", ztx_errors.ErrInvalidPagination)
	}
	return limit, offset, nil
}
