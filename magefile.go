//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default 默认任务：显示帮助信息
func Default() {
	fmt.Println("akcache 构建系统")
	fmt.Println("================")
	fmt.Println("可用任务:")
	fmt.Println("  mage build     - 构建所有二进制文件")
	fmt.Println("  mage test      - 运行单元测试")
	fmt.Println("  mage lint      - 运行代码格式检查")
	fmt.Println("  mage coverage  - 生成测试覆盖率报告")
	fmt.Println("  mage clean     - 清理构建产物")
}

// Build 构建所有二进制文件
func Build() error {
	mg.Deps(Clean)

	targets := []struct {
		name string
		path string
	}{
		{"server", "./cmd/server"},
		{"backfill", "./cmd/backfill"},
	}

	for _, target := range targets {
		fmt.Printf("构建 %s...\n", target.name)
		output := filepath.Join("./dist", target.name)
		if runtime.GOOS == "windows" {
			output += ".exe"
		}

		cmd := exec.Command("go", "build", "-o", output, target.path)
		cmd.Env = append(os.Environ(), "CGO_ENABLED=0")

		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("构建 %s 失败: %v\n输出: %s", target.name, err, string(out))
		}
	}

	fmt.Println("构建完成")
	return nil
}

// Test 运行单元测试
func Test() error {
	fmt.Println("运行单元测试...")
	return sh.RunV("go", "test", "./pkg/...", "-timeout=5m")
}

// Lint 运行代码格式检查并自动修复
func Lint() error {
	fmt.Println("运行代码格式检查...")

	cmd := exec.Command("gofmt", "-l", ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gofmt 检查失败: %v", err)
	}
	if len(output) > 0 {
		fmt.Printf("发现格式问题:\n%s", string(output))
		if err := sh.Run("gofmt", "-w", "."); err != nil {
			return fmt.Errorf("自动修复失败: %v", err)
		}
		fmt.Println("格式问题已修复")
	}

	return sh.RunV("go", "vet", "./...")
}

// Coverage 生成测试覆盖率报告
func Coverage() error {
	fmt.Println("生成测试覆盖率报告...")

	if err := os.MkdirAll("./reports", 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %v", err)
	}
	if err := sh.RunV("go", "test", "./pkg/...", "-coverprofile=./reports/coverage.out", "-covermode=atomic"); err != nil {
		return err
	}
	if err := sh.Run("go", "tool", "cover", "-html=./reports/coverage.out", "-o", "./reports/coverage.html"); err != nil {
		return fmt.Errorf("生成HTML报告失败: %v", err)
	}
	return sh.RunV("go", "tool", "cover", "-func=./reports/coverage.out")
}

// Clean 清理构建产物
func Clean() error {
	if err := os.MkdirAll("./dist", 0755); err != nil {
		return fmt.Errorf("创建 dist 目录失败: %v", err)
	}
	files, err := filepath.Glob("./dist/*")
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			fmt.Printf("警告: 无法删除文件 %s: %v\n", file, err)
		}
	}
	return os.RemoveAll("./reports")
}
