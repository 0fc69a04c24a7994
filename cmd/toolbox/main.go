package main

import "github.com/NVIDIA/cloud-native-toolbox/pkg/cli"

func main() {
	cli.Execute()
}
