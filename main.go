// main.go 是 codestat 的程序入口。
// 该文件仅负责注入版本号并执行 Cobra 根命令，业务逻辑都在 cmd/internal 目录中。
package main

import (
	"fmt"
	"os"

	"codestat/cmd"
)

// version 默认值为 dev。
// 发布时可以通过 -ldflags "-X main.version=vX.Y.Z" 覆盖该值。
var version = "dev"

func main() {
	if err := cmd.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "codestat error: %v\n", err)
		os.Exit(1)
	}
}
