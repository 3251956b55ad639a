package lvapp

import (
	appbase "github.com/warptools/ledgerview/app/base"
	_ "github.com/warptools/ledgerview/app/put"
	_ "github.com/warptools/ledgerview/app/resolve"
	_ "github.com/warptools/ledgerview/app/schema"
)

var App = appbase.App
