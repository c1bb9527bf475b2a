package shared

// Canonical route keys for permission-gated admin routes. A key is the
// chi route pattern, method-agnostic, and must match the Route column
// of the permission registry exactly.
const (
	RouteTagAdd  = "/admin/tag/add"
	RouteTagList = "/admin/tag/list"
	RouteTagEdit = "/admin/tag/edit/{id}"
	RouteTagDel  = "/admin/tag/del/{id}"

	RouteMovieAdd  = "/admin/movie/add"
	RouteMovieList = "/admin/movie/list"
	RouteMovieEdit = "/admin/movie/edit/{id}"
	RouteMovieDel  = "/admin/movie/del/{id}"

	RoutePreviewAdd  = "/admin/preview/add"
	RoutePreviewList = "/admin/preview/list"
	RoutePreviewEdit = "/admin/preview/edit/{id}"
	RoutePreviewDel  = "/admin/preview/del/{id}"

	RouteMemberList = "/admin/member/list"
	RouteMemberView = "/admin/member/view/{id}"
	RouteMemberDel  = "/admin/member/del/{id}"

	RouteCommentList = "/admin/comment/list"
	RouteCommentDel  = "/admin/comment/del/{id}"

	RouteFavoriteList = "/admin/favorite/list"
	RouteFavoriteDel  = "/admin/favorite/del/{id}"

	RouteOplogList          = "/admin/oplog/list"
	RouteAdminLoginlogList  = "/admin/adminloginlog/list"
	RouteMemberLoginlogList = "/admin/memberloginlog/list"

	RoutePermissionAdd  = "/admin/permission/add"
	RoutePermissionList = "/admin/permission/list"
	RoutePermissionEdit = "/admin/permission/edit/{id}"
	RoutePermissionDel  = "/admin/permission/del/{id}"

	RouteRoleAdd  = "/admin/role/add"
	RouteRoleList = "/admin/role/list"
	RouteRoleEdit = "/admin/role/edit/{id}"
	RouteRoleDel  = "/admin/role/del/{id}"

	RouteAdminAdd  = "/admin/admin/add"
	RouteAdminList = "/admin/admin/list"
	RouteAdminEdit = "/admin/admin/edit/{id}"
)

// AllRouteKeys lists every gated route key, in registry order. The
// bootstrap seeder registers a permission for each.
func AllRouteKeys() []string {
	return []string{
		RouteTagAdd, RouteTagList, RouteTagEdit, RouteTagDel,
		RouteMovieAdd, RouteMovieList, RouteMovieEdit, RouteMovieDel,
		RoutePreviewAdd, RoutePreviewList, RoutePreviewEdit, RoutePreviewDel,
		RouteMemberList, RouteMemberView, RouteMemberDel,
		RouteCommentList, RouteCommentDel,
		RouteFavoriteList, RouteFavoriteDel,
		RouteOplogList, RouteAdminLoginlogList, RouteMemberLoginlogList,
		RoutePermissionAdd, RoutePermissionList, RoutePermissionEdit, RoutePermissionDel,
		RouteRoleAdd, RouteRoleList, RouteRoleEdit, RouteRoleDel,
		RouteAdminAdd, RouteAdminList, RouteAdminEdit,
	}
}
