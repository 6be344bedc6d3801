package cmd

import (
	_ "deploy-keeper/cmd/pipeline"
	_ "deploy-keeper/cmd/root"
	_ "deploy-keeper/cmd/server"
	_ "deploy-keeper/cmd/service"
)
