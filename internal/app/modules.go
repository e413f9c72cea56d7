package app

import (
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/delay"
	"github.com/vk/flowgridgo/modules/htmlextract"
	"github.com/vk/flowgridgo/modules/httprequest"
	"github.com/vk/flowgridgo/modules/logvalue"
	"github.com/vk/flowgridgo/modules/markdown"
	"github.com/vk/flowgridgo/modules/openaichat"
	"github.com/vk/flowgridgo/modules/socketio"
	"github.com/vk/flowgridgo/modules/transform"
)

// coreModules is the definitive list of all node modules that are compiled
// into the flowgridgo binary.
var coreModules = []registry.Module{
	&logvalue.Module{},
	&httprequest.Module{},
	&transform.Module{},
	&delay.Module{},
	&openaichat.Module{},
	&htmlextract.Module{},
	&markdown.Module{},
	&socketio.Module{},
}
